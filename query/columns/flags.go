package columns

// Flag setters on the typed columns. They shadow the Column setters so that
// chaining keeps the typed operations available:
//
//	id := columns.NewTypedColumn[int64]("book", "id").PrimaryKey().Generated()
//	id.EQ(1)

func (c TypedColumn[T]) Nullable() TypedColumn[T] {
	c.Column = c.Column.Nullable()
	return c
}

func (c TypedColumn[T]) Unique() TypedColumn[T] {
	c.Column = c.Column.Unique()
	return c
}

func (c TypedColumn[T]) PrimaryKey() TypedColumn[T] {
	c.Column = c.Column.PrimaryKey()
	return c
}

func (c TypedColumn[T]) Generated() TypedColumn[T] {
	c.Column = c.Column.Generated()
	return c
}

func (c TypedColumn[T]) Type(sqlType string) TypedColumn[T] {
	c.Column = c.Column.Type(sqlType)
	return c
}

func (c TypedColumn[T]) Default(expr string) TypedColumn[T] {
	c.Column = c.Column.Default(expr)
	return c
}

func (c StringColumn) Nullable() StringColumn {
	c.TypedColumn = c.TypedColumn.Nullable()
	return c
}

func (c StringColumn) Unique() StringColumn {
	c.TypedColumn = c.TypedColumn.Unique()
	return c
}

func (c StringColumn) PrimaryKey() StringColumn {
	c.TypedColumn = c.TypedColumn.PrimaryKey()
	return c
}

func (c StringColumn) Generated() StringColumn {
	c.TypedColumn = c.TypedColumn.Generated()
	return c
}

func (c StringColumn) Type(sqlType string) StringColumn {
	c.TypedColumn = c.TypedColumn.Type(sqlType)
	return c
}

func (c StringColumn) Default(expr string) StringColumn {
	c.TypedColumn = c.TypedColumn.Default(expr)
	return c
}

// Nullable is a no-op kept so the setter set matches the other columns
func (c NullableColumn[T]) Nullable() NullableColumn[T] {
	return c
}

func (c NullableColumn[T]) Unique() NullableColumn[T] {
	c.TypedColumn = c.TypedColumn.Unique()
	return c
}

func (c NullableColumn[T]) PrimaryKey() NullableColumn[T] {
	c.TypedColumn = c.TypedColumn.PrimaryKey()
	return c
}

func (c NullableColumn[T]) Generated() NullableColumn[T] {
	c.TypedColumn = c.TypedColumn.Generated()
	return c
}

func (c NullableColumn[T]) Type(sqlType string) NullableColumn[T] {
	c.TypedColumn = c.TypedColumn.Type(sqlType)
	return c
}

func (c NullableColumn[T]) Default(expr string) NullableColumn[T] {
	c.TypedColumn = c.TypedColumn.Default(expr)
	return c
}

func (c ArrayColumn[E]) Nullable() ArrayColumn[E] {
	c.Column = c.Column.Nullable()
	return c
}

func (c ArrayColumn[E]) Unique() ArrayColumn[E] {
	c.Column = c.Column.Unique()
	return c
}

func (c ArrayColumn[E]) PrimaryKey() ArrayColumn[E] {
	c.Column = c.Column.PrimaryKey()
	return c
}

func (c ArrayColumn[E]) Generated() ArrayColumn[E] {
	c.Column = c.Column.Generated()
	return c
}

// Type sets the element type; the column stays an array
func (c ArrayColumn[E]) Type(sqlType string) ArrayColumn[E] {
	c.Column = c.Column.Type(sqlType)
	return c
}

func (c ArrayColumn[E]) Default(expr string) ArrayColumn[E] {
	c.Column = c.Column.Default(expr)
	return c
}

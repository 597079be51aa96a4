package executor_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

type fakeRows struct {
	cols   []string
	data   [][]interface{}
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...interface{}) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, v := range row {
		target := reflect.ValueOf(dest[i]).Elem()
		value := reflect.ValueOf(v)
		if !value.Type().AssignableTo(target.Type()) {
			return fmt.Errorf("cannot scan %T into %s", v, target.Type())
		}
		target.Set(value)
	}
	return nil
}

func (r *fakeRows) Err() error   { return r.err }
func (r *fakeRows) Close() error { r.closed = true; return nil }

type fakeConn struct {
	rows     *fakeRows
	affected int64
	err      error
	queries  []string
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...interface{}) (executor.Rows, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}
	return c.rows, nil
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	c.queries = append(c.queries, query)
	return c.affected, c.err
}

type book struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

func (b *book) ScanRow(row executor.Row) error {
	return executor.ScanStruct(row, b)
}

type strictBook struct {
	ID int64
}

func (b *strictBook) ScanRow(row executor.Row) error {
	if err := row.Scan(&b.ID); err != nil {
		return err
	}
	if b.ID < 0 {
		return errors.New("negative id")
	}
	return nil
}

func rowsQuery() sqlgen.Query {
	return sqlgen.Query{SQL: "SELECT id, title FROM book", Shape: sqlgen.ShapeRows}
}

func TestFetchAll(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{
		cols: []string{"id", "title"},
		data: [][]interface{}{{int64(1), "Foo"}, {int64(2), "Bar"}},
	}}

	books, err := executor.FetchAll[book](context.Background(), conn, rowsQuery())
	require.NoError(t, err)
	assert.Equal(t, []book{{1, "Foo"}, {2, "Bar"}}, books)
	assert.True(t, conn.rows.closed)
}

func TestFetchAllDecodeErrorAbortsBatch(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{
		cols: []string{"id"},
		data: [][]interface{}{{int64(1)}, {int64(-1)}, {int64(3)}},
	}}
	q := sqlgen.Query{SQL: "SELECT id FROM book", Shape: sqlgen.ShapeRows}

	books, err := executor.FetchAll[strictBook](context.Background(), conn, q)
	require.ErrorIs(t, err, executor.ErrDecode)
	assert.Contains(t, err.Error(), "negative id")
	assert.Contains(t, err.Error(), "row 1")
	assert.Nil(t, books)
	assert.True(t, conn.rows.closed)
}

func TestFetchOptional(t *testing.T) {
	q := sqlgen.Query{SQL: "SELECT id, title FROM book LIMIT 1", Shape: sqlgen.ShapeOptional}

	t.Run("no rows", func(t *testing.T) {
		conn := &fakeConn{rows: &fakeRows{cols: []string{"id", "title"}}}
		b, err := executor.FetchOptional[book](context.Background(), conn, q)
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("first row wins", func(t *testing.T) {
		conn := &fakeConn{rows: &fakeRows{
			cols: []string{"id", "title"},
			data: [][]interface{}{{int64(7), "First"}, {int64(8), "Second"}},
		}}
		b, err := executor.FetchOptional[book](context.Background(), conn, q)
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, book{7, "First"}, *b)
	})
}

func TestAffected(t *testing.T) {
	conn := &fakeConn{affected: 3}
	n, err := executor.Affected(context.Background(), conn, sqlgen.Query{SQL: "DELETE FROM book", Shape: sqlgen.ShapeAffected})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestShapeMismatch(t *testing.T) {
	conn := &fakeConn{}
	ctx := context.Background()

	_, err := executor.Affected(ctx, conn, rowsQuery())
	assert.ErrorIs(t, err, executor.ErrShape)

	_, err = executor.FetchOptional[book](ctx, conn, rowsQuery())
	assert.ErrorIs(t, err, executor.ErrShape)

	_, err = executor.FetchAll[book](ctx, conn, sqlgen.Query{Shape: sqlgen.ShapeAffected})
	assert.ErrorIs(t, err, executor.ErrShape)

	assert.Empty(t, conn.queries, "mismatched statements must not reach the connection")
}

func TestProtocolErrorsAreVerbatim(t *testing.T) {
	driverErr := errors.New(`pq: relation "book" does not exist`)
	conn := &fakeConn{err: driverErr}

	_, err := executor.FetchAll[book](context.Background(), conn, rowsQuery())
	require.ErrorIs(t, err, driverErr)

	var pe *executor.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, driverErr.Error(), err.Error())
	assert.Equal(t, "SELECT id, title FROM book", pe.SQL)
}

func TestScanStructDiscardsUnknownColumns(t *testing.T) {
	type withExtra struct {
		ID      int64
		Ignored string `db:"-"`
		Title   string `db:"title"`
	}

	rows := &fakeRows{
		cols: []string{"ID", "title", "extra"},
		data: [][]interface{}{{int64(4), "Foo", "unused"}},
	}
	require.True(t, rows.Next())

	var dest withExtra
	require.NoError(t, executor.ScanStruct(rows, &dest))
	assert.Equal(t, withExtra{ID: 4, Title: "Foo"}, dest)

	assert.Error(t, executor.ScanStruct(rows, dest))
}

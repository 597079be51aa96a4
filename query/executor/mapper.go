package executor

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mitranim/refut"
)

// fieldCache maps struct types to their column name -> field index paths
var fieldCache sync.Map

// ScanStruct scans the current row into the struct pointed to by dest.
//
// Columns are matched against the `db` tag of each exported field, or the
// lower-cased field name when the field has no tag. Fields tagged `db:"-"`
// are skipped. Columns without a matching field are read and discarded.
func ScanStruct(row Row, dest interface{}) error {
	rval := reflect.ValueOf(dest)
	if rval.Kind() != reflect.Ptr || rval.IsNil() {
		return fmt.Errorf("scan destination must be a non-nil struct pointer, got %T", dest)
	}
	rval = rval.Elem()
	if rval.Kind() != reflect.Struct {
		return fmt.Errorf("scan destination must be a non-nil struct pointer, got %T", dest)
	}

	fields, err := structFields(rval.Type())
	if err != nil {
		return err
	}

	cols, err := row.Columns()
	if err != nil {
		return err
	}

	targets := make([]interface{}, len(cols))
	for i, col := range cols {
		if path, ok := fields[strings.ToLower(col)]; ok {
			targets[i] = rval.FieldByIndex(path).Addr().Interface()
			continue
		}
		var discard interface{}
		targets[i] = &discard
	}

	return row.Scan(targets...)
}

func structFields(rtype reflect.Type) (map[string][]int, error) {
	if cached, ok := fieldCache.Load(rtype); ok {
		return cached.(map[string][]int), nil
	}

	fields := make(map[string][]int)
	err := refut.TraverseStructRtype(rtype, func(sfield reflect.StructField, path []int) error {
		if sfield.PkgPath != "" {
			return nil
		}

		tag := sfield.Tag.Get("db")
		if tag == "-" {
			return nil
		}
		name := refut.TagIdent(tag)
		if name == "" {
			name = sfield.Name
		}

		fields[strings.ToLower(name)] = append([]int(nil), path...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map struct %s: %w", rtype, err)
	}

	fieldCache.Store(rtype, fields)
	return fields, nil
}

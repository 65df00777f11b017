package frame

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/series"
)

// FromRecord creates a Frame over the columns of an Arrow record batch
// without copying. The record remains owned by the caller; the frame
// retains its own references to the column arrays.
func FromRecord(rec arrow.Record) *Frame {
	schema := rec.Schema()
	cols := make([]ISeries, 0, int(rec.NumCols()))
	for i := 0; i < int(rec.NumCols()); i++ {
		cols = append(cols, series.Wrap(schema.Field(i).Name, rec.Column(i)))
	}
	return New(cols...)
}

// Record exports the Frame as an Arrow record batch. The returned
// record shares column storage with the frame and must be released
// by the caller.
func (f *Frame) Record() arrow.Record {
	fields := make([]arrow.Field, 0, len(f.order))
	arrs := make([]arrow.Array, 0, len(f.order))

	for _, name := range f.order {
		col := f.columns[name]
		arr := col.Array()
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     col.DataType(),
			Nullable: true,
		})
		arrs = append(arrs, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrs, int64(f.Len()))
	releaseAll(arrs)
	return rec
}

// ValueAt returns the value of the named column at the given row as a
// Go value, or nil for a null entry.
func (f *Frame) ValueAt(name string, index int) (interface{}, error) {
	col, exists := f.columns[name]
	if !exists {
		return nil, errors.NewColumnNotFoundError("ValueAt", name)
	}
	if index < 0 || index >= col.Len() {
		return nil, errors.ErrInvalidIndex
	}
	if col.IsNull(index) {
		return nil, nil
	}

	arr := col.Array()
	defer arr.Release()

	switch typed := arr.(type) {
	case *array.String:
		return typed.Value(index), nil
	case *array.Int64:
		return typed.Value(index), nil
	case *array.Int32:
		return typed.Value(index), nil
	case *array.Float64:
		return typed.Value(index), nil
	case *array.Float32:
		return typed.Value(index), nil
	case *array.Boolean:
		return typed.Value(index), nil
	default:
		return nil, errors.NewUnsupportedTypeError("ValueAt", arr.DataType().String())
	}
}

// RowAt returns the given row as a column-name keyed map.
func (f *Frame) RowAt(index int) (map[string]interface{}, error) {
	if index < 0 || index >= f.Len() {
		return nil, errors.ErrInvalidIndex
	}

	row := make(map[string]interface{}, len(f.order))
	for _, name := range f.order {
		val, err := f.ValueAt(name, index)
		if err != nil {
			return nil, err
		}
		row[name] = val
	}
	return row, nil
}

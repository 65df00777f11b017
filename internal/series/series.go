// Package series provides the typed, Arrow-backed columns that make
// up a frame. Columns are either built from Go slices (New,
// NewNullable) or wrapped zero-copy around existing Arrow arrays
// (Wrap).
package series

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Series is a named column built from a Go slice. The supported
// element types are string, int64, int32, float64, float32 and bool.
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a column from values with no nulls.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a column from values with a validity mask.
// Entries whose valid flag is false become nulls; a nil mask means
// every value is valid.
func NewNullable[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Series[T]{name: name, array: buildArray(values, valid, mem)}
}

func buildArray[T any](values []T, valid []bool, mem memory.Allocator) arrow.Array {
	switch v := any(values).(type) {
	case []string:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	case []float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	case []float32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	case []bool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(v, valid)
		return b.NewArray()
	default:
		panic(fmt.Sprintf("series: unsupported element type %T", values))
	}
}

// Name returns the column name.
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the number of rows, nulls included.
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Value returns the value at index and whether it is valid. The
// second result is false for nulls and for out of range indexes, so
// nulls never masquerade as zero values.
func (s *Series[T]) Value(index int) (T, bool) {
	var v T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return v, false
	}

	switch arr := s.array.(type) {
	case *array.String:
		if p, ok := any(&v).(*string); ok {
			*p = arr.Value(index)
		}
	case *array.Int64:
		if p, ok := any(&v).(*int64); ok {
			*p = arr.Value(index)
		}
	case *array.Int32:
		if p, ok := any(&v).(*int32); ok {
			*p = arr.Value(index)
		}
	case *array.Float64:
		if p, ok := any(&v).(*float64); ok {
			*p = arr.Value(index)
		}
	case *array.Float32:
		if p, ok := any(&v).(*float32); ok {
			*p = arr.Value(index)
		}
	case *array.Boolean:
		if p, ok := any(&v).(*bool); ok {
			*p = arr.Value(index)
		}
	}
	return v, true
}

// Values returns the column as a Go slice alongside a validity mask.
// Null entries hold the zero value and a false validity flag.
func (s *Series[T]) Values() ([]T, []bool) {
	n := s.array.Len()
	out := make([]T, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i], valid[i] = s.Value(i)
	}
	return out, valid
}

// DataType returns the Arrow data type backing the column.
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull reports whether the value at index is null.
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a short description of the column.
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		s.array.DataType().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

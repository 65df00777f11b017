package series

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Arrow wraps an existing Arrow array as a column without copying.
// It is the zero-copy counterpart of New, used when columns arrive
// from a record batch or an external columnar table.
type Arrow struct {
	name  string
	array arrow.Array
}

// Wrap creates a column over arr, retaining a reference to it.
// The caller keeps its own reference; Release drops only this one.
func Wrap(name string, arr arrow.Array) *Arrow {
	arr.Retain()
	return &Arrow{name: name, array: arr}
}

// Name returns the column name
func (s *Arrow) Name() string {
	return s.name
}

// Len returns the length of the column
func (s *Arrow) Len() int {
	return s.array.Len()
}

// DataType returns the Arrow data type
func (s *Arrow) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Arrow) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a string representation of the column
func (s *Arrow) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		s.array.DataType().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Arrow) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Arrow) Release() {
	if s.array != nil {
		s.array.Release()
	}
}

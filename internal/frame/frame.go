// Package frame provides the columnar DataFrame representation used by
// dataset format views and batched transforms. A Frame is an ordered
// set of typed, Arrow-backed columns.
package frame

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okapidata/okapi/internal/series"
)

// Frame represents a table of data with typed columns
type Frame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new Frame from a slice of ISeries
func New(cols ...ISeries) *Frame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &Frame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (f *Frame) Columns() []string {
	if len(f.order) == 0 {
		return []string{}
	}
	return append([]string(nil), f.order...)
}

// Len returns the number of rows (assumes all columns have same length)
func (f *Frame) Len() int {
	if len(f.order) == 0 {
		return 0
	}
	if col, exists := f.columns[f.order[0]]; exists {
		return col.Len()
	}
	return 0
}

// Width returns the number of columns
func (f *Frame) Width() int {
	return len(f.columns)
}

// Column returns the series for the given column name
func (f *Frame) Column(name string) (ISeries, bool) {
	col, exists := f.columns[name]
	return col, exists
}

// HasColumn checks if a column exists
func (f *Frame) HasColumn(name string) bool {
	_, exists := f.columns[name]
	return exists
}

// Select returns a new Frame with only the specified columns.
// The selected columns are shared with the original frame.
func (f *Frame) Select(names ...string) *Frame {
	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if col, exists := f.columns[name]; exists {
			newColumns[name] = col
			newOrder = append(newOrder, name)
		}
	}

	return &Frame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Drop returns a new Frame without the specified columns
func (f *Frame) Drop(names ...string) *Frame {
	dropSet := make(map[string]bool)
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(f.order))

	for _, name := range f.order {
		if !dropSet[name] {
			newColumns[name] = f.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &Frame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Slice creates a new Frame containing rows from start (inclusive) to
// end (exclusive). Column data is shared via Arrow array slices.
func (f *Frame) Slice(start, end int) *Frame {
	if start < 0 || end < 0 || start >= end {
		return New()
	}

	length := f.Len()
	if start >= length {
		return New()
	}
	if end > length {
		end = length
	}

	sliced := make([]ISeries, 0, len(f.order))
	for _, colName := range f.order {
		col := f.columns[colName]
		arr := col.Array()
		view := array.NewSlice(arr, int64(start), int64(end))
		arr.Release()
		sliced = append(sliced, series.Wrap(colName, view))
		view.Release()
	}

	return New(sliced...)
}

// Concat appends other frames below this one. All frames must share
// the same column names, order, and types.
func (f *Frame) Concat(others ...*Frame) (*Frame, error) {
	frames := append([]*Frame{f}, others...)

	cols := make([]ISeries, 0, len(f.order))
	for _, colName := range f.order {
		chunks := make([]arrow.Array, 0, len(frames))
		for _, fr := range frames {
			col, exists := fr.columns[colName]
			if !exists {
				releaseAll(chunks)
				return nil, fmt.Errorf("concat: column %q missing from frame", colName)
			}
			chunks = append(chunks, col.Array())
		}

		merged, err := array.Concatenate(chunks, memory.DefaultAllocator)
		releaseAll(chunks)
		if err != nil {
			return nil, fmt.Errorf("concat: column %q: %w", colName, err)
		}
		cols = append(cols, series.Wrap(colName, merged))
		merged.Release()
	}

	return New(cols...), nil
}

func releaseAll(arrs []arrow.Array) {
	for _, a := range arrs {
		a.Release()
	}
}

// String returns a string representation of the Frame
func (f *Frame) String() string {
	if len(f.columns) == 0 {
		return "Frame[empty]"
	}

	parts := []string{fmt.Sprintf("Frame[%dx%d]", f.Len(), f.Width())}

	for _, name := range f.order {
		col := f.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, col.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release frees the memory used by all columns
func (f *Frame) Release() {
	for _, col := range f.columns {
		col.Release()
	}
}

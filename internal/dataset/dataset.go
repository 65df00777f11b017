// Package dataset provides an immutable, ordered collection of rows
// held as Apache Arrow record batches sharing a single schema. It
// implements the interop surface between row-oriented dataset access
// and columnar DataFrame access: format views, batched map and filter
// transforms, bidirectional frame conversion, and chunked iteration.
package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/frame"
)

// Row is a single dataset element keyed by column name.
type Row map[string]interface{}

// Dataset is an immutable table of rows stored as Arrow record
// batches. All derived datasets (views, maps, filters, slices) are
// new values; the receiver is never modified.
type Dataset struct {
	schema      *arrow.Schema
	records     []arrow.Record
	format      Format
	fingerprint uint64
}

// New creates a Dataset over the given record batches. All batches
// must share one schema. The dataset retains its own references; the
// caller keeps ownership of the passed records.
func New(records ...arrow.Record) (*Dataset, error) {
	if len(records) == 0 {
		return &Dataset{format: FormatRows}, nil
	}

	schema := records[0].Schema()
	for i, rec := range records[1:] {
		if !schema.Equal(rec.Schema()) {
			return nil, errors.NewSchemaMismatchError("New",
				fmt.Sprintf("record %d does not match record 0", i+1))
		}
	}

	owned := make([]arrow.Record, len(records))
	for i, rec := range records {
		rec.Retain()
		owned[i] = rec
	}

	ds := &Dataset{
		schema:  schema,
		records: owned,
		format:  FormatRows,
	}
	ds.fingerprint = fingerprintSchema(schema, ds.Len())
	return ds, nil
}

// fromOwned builds a Dataset that takes ownership of already-retained
// records. Internal constructor for derived datasets.
func fromOwned(schema *arrow.Schema, records []arrow.Record, format Format, fingerprint uint64) *Dataset {
	return &Dataset{
		schema:      schema,
		records:     records,
		format:      format,
		fingerprint: fingerprint,
	}
}

// Schema returns the Arrow schema shared by all batches, or nil for
// an empty dataset.
func (d *Dataset) Schema() *arrow.Schema {
	return d.schema
}

// Columns returns the column names in schema order.
func (d *Dataset) Columns() []string {
	if d.schema == nil {
		return []string{}
	}
	names := make([]string, 0, d.schema.NumFields())
	for _, field := range d.schema.Fields() {
		names = append(names, field.Name)
	}
	return names
}

// Len returns the total number of rows across all batches.
func (d *Dataset) Len() int {
	total := 0
	for _, rec := range d.records {
		total += int(rec.NumRows())
	}
	return total
}

// NumBatches returns the number of stored record batches.
func (d *Dataset) NumBatches() int {
	return len(d.records)
}

// Record returns the i-th stored batch, retained for the caller.
func (d *Dataset) Record(i int) (arrow.Record, error) {
	if i < 0 || i >= len(d.records) {
		return nil, errors.ErrInvalidIndex
	}
	rec := d.records[i]
	rec.Retain()
	return rec, nil
}

// locate maps a row index to its containing batch and local offset.
func (d *Dataset) locate(index int) (arrow.Record, int, error) {
	if index < 0 {
		return nil, 0, errors.ErrInvalidIndex
	}
	offset := index
	for _, rec := range d.records {
		n := int(rec.NumRows())
		if offset < n {
			return rec, offset, nil
		}
		offset -= n
	}
	return nil, 0, errors.ErrInvalidIndex
}

// Row returns the element at index as a column-keyed map, regardless
// of the dataset's format.
func (d *Dataset) Row(index int) (Row, error) {
	rec, local, err := d.locate(index)
	if err != nil {
		return nil, err
	}

	fr := frame.FromRecord(rec)
	defer fr.Release()

	row, err := fr.RowAt(local)
	if err != nil {
		return nil, err
	}
	return Row(row), nil
}

// Get returns the element at index in the representation selected by
// the dataset's format: a Row, a one-row *frame.Frame, or a one-row
// arrow.Record. Frames and records must be released by the caller.
func (d *Dataset) Get(index int) (interface{}, error) {
	switch d.format {
	case FormatColumns:
		rec, local, err := d.locate(index)
		if err != nil {
			return nil, err
		}
		fr := frame.FromRecord(rec)
		defer fr.Release()
		return fr.Slice(local, local+1), nil
	case FormatArrow:
		rec, local, err := d.locate(index)
		if err != nil {
			return nil, err
		}
		return rec.NewSlice(int64(local), int64(local+1)), nil
	default:
		return d.Row(index)
	}
}

// Select returns a dataset restricted to the named columns, sharing
// column storage with the receiver.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	if d.schema == nil {
		return nil, errors.ErrEmptyDataset
	}

	indices := make([]int, 0, len(names))
	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		idxs := d.schema.FieldIndices(name)
		if len(idxs) == 0 {
			return nil, errors.NewColumnNotFoundError("Select", name)
		}
		indices = append(indices, idxs[0])
		fields = append(fields, d.schema.Field(idxs[0]))
	}

	schema := arrow.NewSchema(fields, nil)
	records := make([]arrow.Record, 0, len(d.records))
	for _, rec := range d.records {
		cols := make([]arrow.Array, 0, len(indices))
		for _, idx := range indices {
			cols = append(cols, rec.Column(idx))
		}
		records = append(records, array.NewRecord(schema, cols, rec.NumRows()))
	}

	return fromOwned(schema, records, d.format,
		deriveFingerprint(d.fingerprint, "select", names...)), nil
}

// Slice returns the rows from start (inclusive) to end (exclusive) as
// a dataset sharing storage with the receiver.
func (d *Dataset) Slice(start, end int) (*Dataset, error) {
	length := d.Len()
	if start < 0 || end < start {
		return nil, errors.ErrInvalidIndex
	}
	if end > length {
		end = length
	}
	if start >= length || start == end {
		return fromOwned(d.schema, nil, d.format,
			deriveFingerprint(d.fingerprint, "slice", "empty")), nil
	}

	var records []arrow.Record
	offset := 0
	for _, rec := range d.records {
		n := int(rec.NumRows())
		lo, hi := start-offset, end-offset
		offset += n
		if hi <= 0 || lo >= n {
			continue
		}
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		records = append(records, rec.NewSlice(int64(lo), int64(hi)))
	}

	return fromOwned(d.schema, records, d.format,
		deriveFingerprint(d.fingerprint, "slice",
			fmt.Sprintf("%d:%d", start, end))), nil
}

// Concat appends the rows of other datasets after this one. Schemas
// must match.
func (d *Dataset) Concat(others ...*Dataset) (*Dataset, error) {
	records := make([]arrow.Record, 0, len(d.records))
	for _, rec := range d.records {
		rec.Retain()
		records = append(records, rec)
	}

	schema := d.schema
	for _, other := range others {
		if other.schema == nil {
			continue
		}
		if schema == nil {
			schema = other.schema
		} else if !schema.Equal(other.schema) {
			for _, rec := range records {
				rec.Release()
			}
			return nil, errors.NewSchemaMismatchError("Concat",
				"datasets do not share a schema")
		}
		for _, rec := range other.records {
			rec.Retain()
			records = append(records, rec)
		}
	}

	return fromOwned(schema, records, d.format,
		deriveFingerprint(d.fingerprint, "concat")), nil
}

// String returns a short description of the dataset.
func (d *Dataset) String() string {
	if d.schema == nil {
		return "Dataset[empty]"
	}
	return fmt.Sprintf("Dataset[%dx%d, %d batches, format=%s]",
		d.Len(), d.schema.NumFields(), len(d.records), d.format)
}

// Release frees the dataset's references to its record batches.
func (d *Dataset) Release() {
	for _, rec := range d.records {
		rec.Release()
	}
	d.records = nil
}

// Package okapi provides an immutable, Arrow-backed dataset library
// with columnar DataFrame interop. A Dataset is an ordered collection
// of rows stored as Apache Arrow record batches; switching the access
// format, batched map and filter transforms, bidirectional frame
// conversion, and chunked iteration all share the same underlying
// columnar storage. This package is the sole public API for the
// library.
package okapi

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okapidata/okapi/internal/dataset"
	"github.com/okapidata/okapi/internal/frame"
	"github.com/okapidata/okapi/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// Row is a single dataset element keyed by column name.
type Row = dataset.Row

// Format selects the representation rows and batches are returned in.
type Format = dataset.Format

const (
	// FormatRows returns elements as Row maps.
	FormatRows = dataset.FormatRows
	// FormatColumns returns elements as columnar frames.
	FormatColumns = dataset.FormatColumns
	// FormatArrow returns elements as Arrow record batches.
	FormatArrow = dataset.FormatArrow
)

// Frame is the public type for a columnar DataFrame view.
// It wraps the internal frame.Frame to hide implementation details.
type Frame struct {
	f *frame.Frame
}

// Dataset is the public type for an immutable dataset.
// It wraps the internal dataset.Dataset to hide implementation details.
type Dataset struct {
	ds *dataset.Dataset
}

// BatchFunc transforms one columnar batch into another. The output
// batch may have a different number of rows.
type BatchFunc func(*Frame) (*Frame, error)

// RowFunc transforms one row into another.
type RowFunc func(Row) (Row, error)

// MaskFunc computes a keep mask for one columnar batch. The mask must
// be exactly as long as the batch.
type MaskFunc func(*Frame) ([]bool, error)

// PredicateFunc decides whether a single row is kept.
type PredicateFunc func(Row) (bool, error)

// MapOptions configures batched map operations.
type MapOptions struct {
	// BatchSize is the number of rows per batch (0 = default)
	BatchSize int
	// Parallel forces parallel execution regardless of dataset size
	Parallel bool
}

// FilterOptions configures batched filter operations.
type FilterOptions struct {
	// BatchSize is the number of rows per batch (0 = default)
	BatchSize int
	// Parallel forces parallel execution regardless of dataset size
	Parallel bool
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewNullableSeries creates a typed Series with a validity mask.
// Entries whose valid flag is false become nulls.
func NewNullableSeries[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewNullable(name, values, valid, mem)
}

// WrapSeries creates a Series over an existing Arrow array without
// copying. The series retains the array.
func WrapSeries(name string, arr arrow.Array) ISeries {
	return series.Wrap(name, arr)
}

// NewFrame creates a new Frame from ISeries.
func NewFrame(columns ...ISeries) *Frame {
	internalSeries := make([]frame.ISeries, len(columns))
	for i, s := range columns {
		internalSeries[i] = s
	}
	return &Frame{f: frame.New(internalSeries...)}
}

// FrameFromRecord creates a Frame sharing storage with an Arrow
// record batch.
func FrameFromRecord(rec arrow.Record) *Frame {
	return &Frame{f: frame.FromRecord(rec)}
}

// Frame methods

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return f.f.Columns()
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.f.Len()
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	return f.f.Width()
}

// Column returns the column with the given name.
func (f *Frame) Column(name string) (ISeries, bool) {
	return f.f.Column(name)
}

// HasColumn returns true if the Frame has the given column.
func (f *Frame) HasColumn(name string) bool {
	return f.f.HasColumn(name)
}

// Select returns a view with only the specified columns. The view
// shares columns with the receiver; release the receiver, not the
// view.
func (f *Frame) Select(names ...string) *Frame {
	return &Frame{f: f.f.Select(names...)}
}

// Drop returns a view without the specified columns. The view shares
// columns with the receiver; release the receiver, not the view.
func (f *Frame) Drop(names ...string) *Frame {
	return &Frame{f: f.f.Drop(names...)}
}

// Slice returns a new Frame with rows from start to end (exclusive).
// The slice shares storage with the receiver.
func (f *Frame) Slice(start, end int) *Frame {
	return &Frame{f: f.f.Slice(start, end)}
}

// Concat returns a new Frame with the rows of the receiver followed
// by the rows of the others. All frames must share the same columns.
func (f *Frame) Concat(others ...*Frame) (*Frame, error) {
	internal := make([]*frame.Frame, len(others))
	for i, other := range others {
		internal[i] = other.f
	}
	merged, err := f.f.Concat(internal...)
	if err != nil {
		return nil, err
	}
	return &Frame{f: merged}, nil
}

// Record exports the Frame as an Arrow record batch sharing column
// storage. The caller must release the record.
func (f *Frame) Record() arrow.Record {
	return f.f.Record()
}

// ValueAt returns the value of the named column at the given row
// index, or nil for a null entry.
func (f *Frame) ValueAt(name string, index int) (interface{}, error) {
	return f.f.ValueAt(name, index)
}

// RowAt returns the given row as a map keyed by column name.
func (f *Frame) RowAt(index int) (Row, error) {
	row, err := f.f.RowAt(index)
	if err != nil {
		return nil, err
	}
	return Row(row), nil
}

// String returns a string representation of the Frame.
func (f *Frame) String() string {
	return f.f.String()
}

// Release frees the Frame's column references.
func (f *Frame) Release() {
	f.f.Release()
}

// NewDataset creates a Dataset over the given record batches. All
// batches must share one schema; the dataset retains its own
// references.
func NewDataset(records ...arrow.Record) (*Dataset, error) {
	ds, err := dataset.New(records...)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// FromFrame constructs a Dataset from a columnar frame. The dataset
// shares column storage with the frame.
func FromFrame(f *Frame) (*Dataset, error) {
	ds, err := dataset.FromFrame(f.f)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// FromRecord constructs a single-batch Dataset from an Arrow record.
// The dataset retains the record.
func FromRecord(rec arrow.Record) (*Dataset, error) {
	ds, err := dataset.FromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// FromTable constructs a Dataset from an Arrow table, rechunked into
// batches of batchSize rows (0 uses the configured default).
func FromTable(table arrow.Table, batchSize int) (*Dataset, error) {
	ds, err := dataset.FromTable(table, batchSize)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// FromRows constructs a Dataset from row maps. Column order follows
// the given order for keys present there, with extra keys appended in
// sorted order; column types are inferred from the first non-nil
// value of each column.
func FromRows(rows []Row, order []string) (*Dataset, error) {
	ds, err := dataset.FromRows(rows, order)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Dataset methods

// Schema returns the Arrow schema shared by all batches, or nil for
// an empty dataset.
func (d *Dataset) Schema() *arrow.Schema {
	return d.ds.Schema()
}

// Columns returns the column names in schema order.
func (d *Dataset) Columns() []string {
	return d.ds.Columns()
}

// Len returns the total number of rows.
func (d *Dataset) Len() int {
	return d.ds.Len()
}

// NumBatches returns the number of stored record batches.
func (d *Dataset) NumBatches() int {
	return d.ds.NumBatches()
}

// Record returns the i-th stored batch, retained for the caller.
func (d *Dataset) Record(i int) (arrow.Record, error) {
	return d.ds.Record(i)
}

// Row returns the row at the given index as a map keyed by column
// name, regardless of the dataset's format.
func (d *Dataset) Row(index int) (Row, error) {
	return d.ds.Row(index)
}

// Get returns the element at the given index in the representation
// selected by the dataset's format: a Row, a one-row *Frame, or a
// one-row arrow.Record.
func (d *Dataset) Get(index int) (interface{}, error) {
	v, err := d.ds.Get(index)
	if err != nil {
		return nil, err
	}
	if fr, ok := v.(*frame.Frame); ok {
		return &Frame{f: fr}, nil
	}
	return v, nil
}

// WithFormat returns a view of the dataset whose elements and batches
// are produced in the given format. The view shares storage with the
// receiver; neither is modified.
func (d *Dataset) WithFormat(format Format) *Dataset {
	return &Dataset{ds: d.ds.WithFormat(format)}
}

// Format returns the dataset's current access format.
func (d *Dataset) Format() Format {
	return d.ds.Format()
}

// Select returns a new Dataset with only the specified columns.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	ds, err := d.ds.Select(names...)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Slice returns a new Dataset with rows from start to end
// (exclusive), sharing storage with the receiver.
func (d *Dataset) Slice(start, end int) (*Dataset, error) {
	ds, err := d.ds.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Concat returns a new Dataset with the rows of the receiver followed
// by the rows of the others. All datasets must share one schema.
func (d *Dataset) Concat(others ...*Dataset) (*Dataset, error) {
	internal := make([]*dataset.Dataset, len(others))
	for i, other := range others {
		internal[i] = other.ds
	}
	ds, err := d.ds.Concat(internal...)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Map applies a batched transform to the dataset and returns the
// transformed Dataset. Batches run in parallel above the configured
// threshold; row order is always preserved.
//
// The output frame must own its columns. To carry an input column
// through unchanged, wrap its Arrow array rather than reusing the
// input series:
//
//	col, _ := fr.Column("name")
//	arr := col.Array()
//	defer arr.Release()
//	out := okapi.NewFrame(okapi.WrapSeries("name", arr), transformed)
func (d *Dataset) Map(fn BatchFunc, opts MapOptions) (*Dataset, error) {
	inner := func(fr *frame.Frame) (*frame.Frame, error) {
		out, err := fn(&Frame{f: fr})
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, nil
		}
		return out.f, nil
	}
	ds, err := d.ds.Map(inner, dataset.MapOptions{
		BatchSize: opts.BatchSize,
		Parallel:  opts.Parallel,
	})
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// MapRows applies a row transform to every row of the dataset.
func (d *Dataset) MapRows(fn RowFunc) (*Dataset, error) {
	ds, err := d.ds.MapRows(dataset.RowFunc(fn))
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Filter applies a batched keep mask to the dataset and returns the
// Dataset of kept rows.
func (d *Dataset) Filter(fn MaskFunc, opts FilterOptions) (*Dataset, error) {
	inner := func(fr *frame.Frame) ([]bool, error) {
		return fn(&Frame{f: fr})
	}
	ds, err := d.ds.Filter(inner, dataset.FilterOptions{
		BatchSize: opts.BatchSize,
		Parallel:  opts.Parallel,
	})
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// FilterRows keeps the rows for which the predicate returns true.
func (d *Dataset) FilterRows(fn PredicateFunc) (*Dataset, error) {
	ds, err := d.ds.FilterRows(dataset.PredicateFunc(fn))
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// Iter returns an iterator over the dataset in batches of batchSize
// rows. Every batch holds exactly batchSize rows except the final
// short batch. The iterator holds its own references; releasing the
// dataset does not invalidate an open iterator.
func (d *Dataset) Iter(batchSize int) *BatchIterator {
	return &BatchIterator{it: d.ds.Iter(batchSize)}
}

// ToFrame exports the dataset as a single columnar Frame.
func (d *Dataset) ToFrame() (*Frame, error) {
	fr, err := d.ds.ToFrame()
	if err != nil {
		return nil, err
	}
	return &Frame{f: fr}, nil
}

// ToRecord exports the dataset as one contiguous Arrow record batch.
// The caller must release the record.
func (d *Dataset) ToRecord() (arrow.Record, error) {
	return d.ds.ToRecord()
}

// ToTable exports the dataset as an Arrow table sharing storage with
// the dataset's batches. The caller must release the table.
func (d *Dataset) ToTable() (arrow.Table, error) {
	return d.ds.ToTable()
}

// Fingerprint returns a stable identifier for the dataset's schema
// and transformation lineage.
func (d *Dataset) Fingerprint() uint64 {
	return d.ds.Fingerprint()
}

// String returns a string representation of the Dataset.
func (d *Dataset) String() string {
	return d.ds.String()
}

// Release frees the Dataset's batch references.
func (d *Dataset) Release() {
	d.ds.Release()
}

// BatchIterator is the public type for chunked dataset iteration.
type BatchIterator struct {
	it *dataset.BatchIterator
}

// Next advances to the next batch. It returns false when the sequence
// is exhausted, an error occurred, or the iterator is closed.
func (it *BatchIterator) Next() bool {
	return it.it.Next()
}

// Record returns the current batch as an Arrow record. The record is
// owned by the iterator and valid until the next call to Next or
// Close.
func (it *BatchIterator) Record() arrow.Record {
	return it.it.Record()
}

// Frame returns the current batch as a columnar Frame. The caller
// owns the frame and must release it.
func (it *BatchIterator) Frame() *Frame {
	return &Frame{f: it.it.Frame()}
}

// Rows returns the current batch as row maps.
func (it *BatchIterator) Rows() ([]Row, error) {
	return it.it.Rows()
}

// Batch returns the current batch in the representation selected by
// the originating dataset's format: []Row, a *Frame, or an
// arrow.Record.
func (it *BatchIterator) Batch() (interface{}, error) {
	v, err := it.it.Batch()
	if err != nil {
		return nil, err
	}
	if fr, ok := v.(*frame.Frame); ok {
		return &Frame{f: fr}, nil
	}
	return v, nil
}

// Err returns the first error encountered while iterating.
func (it *BatchIterator) Err() error {
	return it.it.Err()
}

// Close releases the iterator's resources. It is safe to call more
// than once.
func (it *BatchIterator) Close() {
	it.it.Close()
}

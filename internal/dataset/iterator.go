package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okapidata/okapi/internal/config"
	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/frame"
)

func defaultBatchSize() int {
	return config.GetGlobalConfig().DefaultBatchSize
}

// BatchIterator produces a lazy, finite sequence of table-shaped
// batches from a dataset. Every batch holds exactly the requested
// number of rows except the final short batch. Iteration is
// restartable in the sense that each Iter call returns a fresh
// iterator positioned at the first batch; a single iterator is not
// safe for concurrent use.
type BatchIterator struct {
	schema    *arrow.Schema
	records   []arrow.Record
	batchSize int
	format    Format

	recIdx int
	offset int
	cur    arrow.Record
	err    error
	closed bool
}

// Iter returns an iterator over the dataset in batches of batchSize
// rows. A non-positive batchSize falls back to the configured
// default. The iterator holds its own references; releasing the
// dataset does not invalidate an open iterator.
func (d *Dataset) Iter(batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize()
	}

	records := make([]arrow.Record, len(d.records))
	for i, rec := range d.records {
		rec.Retain()
		records[i] = rec
	}

	return &BatchIterator{
		schema:    d.schema,
		records:   records,
		batchSize: batchSize,
		format:    d.format,
	}
}

// Next advances to the next batch. It returns false when the sequence
// is exhausted, an error occurred, or the iterator is closed.
func (it *BatchIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}

	if it.cur != nil {
		it.cur.Release()
		it.cur = nil
	}

	// Gather up to batchSize rows, slicing within stored batches and
	// crossing batch boundaries only when a batch runs out.
	var parts []arrow.Record
	need := it.batchSize
	for need > 0 && it.recIdx < len(it.records) {
		rec := it.records[it.recIdx]
		avail := int(rec.NumRows()) - it.offset
		if avail <= 0 {
			it.recIdx++
			it.offset = 0
			continue
		}

		take := avail
		if take > need {
			take = need
		}
		parts = append(parts, rec.NewSlice(int64(it.offset), int64(it.offset+take)))
		it.offset += take
		need -= take

		if it.offset == int(rec.NumRows()) {
			it.recIdx++
			it.offset = 0
		}
	}

	if len(parts) == 0 {
		return false
	}
	if len(parts) == 1 {
		it.cur = parts[0]
		return true
	}

	merged, err := concatRecords(it.schema, parts)
	for _, part := range parts {
		part.Release()
	}
	if err != nil {
		it.err = errors.NewInternalError("Iter", err)
		return false
	}
	it.cur = merged
	return true
}

// concatRecords merges records column by column into one contiguous
// record batch.
func concatRecords(schema *arrow.Schema, parts []arrow.Record) (arrow.Record, error) {
	rows := int64(0)
	for _, part := range parts {
		rows += part.NumRows()
	}

	cols := make([]arrow.Array, 0, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		chunks := make([]arrow.Array, len(parts))
		for j, part := range parts {
			chunks[j] = part.Column(i)
		}
		merged, err := array.Concatenate(chunks, memory.DefaultAllocator)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, merged)
	}

	rec := array.NewRecord(schema, cols, rows)
	for _, c := range cols {
		c.Release()
	}
	return rec, nil
}

// Record returns the current batch as an Arrow record. The record is
// owned by the iterator and valid until the next call to Next or
// Close; callers that keep it longer must Retain it.
func (it *BatchIterator) Record() arrow.Record {
	return it.cur
}

// Frame returns the current batch as a columnar frame. The caller
// owns the frame and must release it.
func (it *BatchIterator) Frame() *frame.Frame {
	if it.cur == nil {
		return frame.New()
	}
	return frame.FromRecord(it.cur)
}

// Rows returns the current batch as row maps.
func (it *BatchIterator) Rows() ([]Row, error) {
	if it.cur == nil {
		return nil, nil
	}

	fr := frame.FromRecord(it.cur)
	defer fr.Release()

	rows := make([]Row, 0, fr.Len())
	for i := 0; i < fr.Len(); i++ {
		row, err := fr.RowAt(i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row(row))
	}
	return rows, nil
}

// Batch returns the current batch in the representation selected by
// the originating dataset's format.
func (it *BatchIterator) Batch() (interface{}, error) {
	if it.closed {
		return nil, errors.ErrIteratorClosed
	}
	switch it.format {
	case FormatColumns:
		return it.Frame(), nil
	case FormatArrow:
		if it.cur != nil {
			it.cur.Retain()
		}
		return it.cur, nil
	default:
		return it.Rows()
	}
}

// Err returns the first error encountered while iterating.
func (it *BatchIterator) Err() error {
	return it.err
}

// Close releases the iterator's resources. It is safe to call more
// than once.
func (it *BatchIterator) Close() {
	if it.closed {
		return
	}
	it.closed = true

	if it.cur != nil {
		it.cur.Release()
		it.cur = nil
	}
	for _, rec := range it.records {
		rec.Release()
	}
	it.records = nil
}

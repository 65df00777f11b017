package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/okapidata/okapi/internal/config"
	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/frame"
)

// MaskFunc evaluates one columnar batch and returns a keep-mask with
// exactly one entry per row of the batch.
type MaskFunc func(*frame.Frame) ([]bool, error)

// PredicateFunc evaluates one row.
type PredicateFunc func(Row) (bool, error)

// FilterOptions configures a Filter operation.
type FilterOptions struct {
	// BatchSize is the number of rows handed to the predicate per
	// call (0 = configured default).
	BatchSize int
	// Parallel forces batches through the worker pool even below
	// the parallel threshold.
	Parallel bool
}

// operation converts the options into a per-operation override.
func (o FilterOptions) operation() *config.OperationConfig {
	return &config.OperationConfig{
		ForceParallel:   o.Parallel,
		CustomBatchSize: o.BatchSize,
	}
}

// Filter applies fn to successive batches and keeps the rows whose
// mask entry is true, preserving order. A mask whose length differs
// from its batch fails the operation.
func (d *Dataset) Filter(fn MaskFunc, opts FilterOptions) (*Dataset, error) {
	if fn == nil {
		return nil, errors.NewInvalidInputError("Filter", "mask function is nil")
	}
	if len(d.records) == 0 {
		return fromOwned(d.schema, nil, d.format,
			deriveFingerprint(d.fingerprint, "filter")), nil
	}

	op := opts.operation()
	inputs, err := d.collectBatches(config.ResolveBatchSize(0, op))
	if err != nil {
		return nil, err
	}
	defer releaseRecords(inputs)

	worker := func(_ int, in arrow.Record) batchResult {
		fr := frame.FromRecord(in)
		defer fr.Release()

		mask, err := fn(fr)
		if err != nil {
			return batchResult{err: err}
		}
		if len(mask) != int(in.NumRows()) {
			return batchResult{err: errors.NewInvalidInputError("Filter",
				fmt.Sprintf("mask length %d does not match batch length %d",
					len(mask), in.NumRows()))}
		}

		rec, err := takeRecord(in, mask)
		if err != nil {
			return batchResult{err: err}
		}
		return batchResult{rec: rec}
	}

	results := d.runBatches(inputs, op, worker)
	records, err := collectResults("Filter", results)
	if err != nil {
		return nil, err
	}

	// Drop fully-filtered batches so the result stays compact.
	kept := records[:0]
	for _, rec := range records {
		if rec.NumRows() == 0 {
			rec.Release()
			continue
		}
		kept = append(kept, rec)
	}

	return fromOwned(d.schema, kept, d.format,
		deriveFingerprint(d.fingerprint, "filter")), nil
}

// FilterRows applies fn to each row individually.
func (d *Dataset) FilterRows(fn PredicateFunc) (*Dataset, error) {
	if fn == nil {
		return nil, errors.NewInvalidInputError("Filter", "predicate is nil")
	}

	mask := func(fr *frame.Frame) ([]bool, error) {
		keep := make([]bool, fr.Len())
		for i := range keep {
			row, err := fr.RowAt(i)
			if err != nil {
				return nil, err
			}
			ok, err := fn(Row(row))
			if err != nil {
				return nil, err
			}
			keep[i] = ok
		}
		return keep, nil
	}

	return d.Filter(mask, FilterOptions{})
}

// takeRecord builds a record holding the rows of rec whose mask entry
// is true.
func takeRecord(rec arrow.Record, mask []bool) (arrow.Record, error) {
	mem := memory.NewGoAllocator()
	schema := rec.Schema()

	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}

	cols := make([]arrow.Array, 0, int(rec.NumCols()))
	for i := 0; i < int(rec.NumCols()); i++ {
		col, err := takeArray(mem, rec.Column(i), mask, kept)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, col)
	}

	out := array.NewRecord(schema, cols, int64(kept))
	for _, c := range cols {
		c.Release()
	}
	return out, nil
}

// takeArray copies the masked-in values of arr into a new array,
// preserving nulls.
func takeArray(mem memory.Allocator, arr arrow.Array, mask []bool, kept int) (arrow.Array, error) {
	switch typed := arr.(type) {
	case *array.String:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	case *array.Int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	case *array.Int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	case *array.Float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	case *array.Float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	case *array.Boolean:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.Reserve(kept)
		for i, keep := range mask {
			if !keep {
				continue
			}
			if typed.IsNull(i) {
				builder.AppendNull()
			} else {
				builder.Append(typed.Value(i))
			}
		}
		return builder.NewArray(), nil
	default:
		return nil, errors.NewUnsupportedTypeError("Filter", arr.DataType().String())
	}
}

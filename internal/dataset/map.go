package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/okapidata/okapi/internal/config"
	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/frame"
	"github.com/okapidata/okapi/internal/parallel"
)

// BatchFunc transforms one columnar batch. The returned frame's
// columns replace or augment the input columns; its row count may
// differ from the input's. All returned frames must agree on schema.
type BatchFunc func(*frame.Frame) (*frame.Frame, error)

// RowFunc transforms one row.
type RowFunc func(Row) (Row, error)

// MapOptions configures a Map operation.
type MapOptions struct {
	// BatchSize is the number of rows handed to the function per
	// call (0 = configured default).
	BatchSize int
	// Parallel forces batches through the worker pool even below
	// the parallel threshold.
	Parallel bool
}

// operation converts the options into a per-operation override.
func (o MapOptions) operation() *config.OperationConfig {
	return &config.OperationConfig{
		ForceParallel:   o.Parallel,
		CustomBatchSize: o.BatchSize,
	}
}

// batchResult carries one transformed batch back from a worker.
type batchResult struct {
	rec arrow.Record
	err error
}

// Map applies fn to successive batches of the dataset and returns a
// new dataset built from the outputs. Batches run through the worker
// pool once the dataset crosses the configured parallel threshold;
// output order always matches input order.
func (d *Dataset) Map(fn BatchFunc, opts MapOptions) (*Dataset, error) {
	if fn == nil {
		return nil, errors.NewInvalidInputError("Map", "batch function is nil")
	}
	if len(d.records) == 0 {
		return fromOwned(d.schema, nil, d.format,
			deriveFingerprint(d.fingerprint, "map")), nil
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

		out, err := fn(fr)
		if err != nil {
			return batchResult{err: err}
		}
		if out == nil {
			return batchResult{err: errors.NewInvalidInputError("Map",
				"batch function returned nil frame")}
		}
		defer out.Release()
		return batchResult{rec: out.Record()}
	}

	results := d.runBatches(inputs, op, worker)
	records, err := collectResults("Map", results)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return fromOwned(d.schema, nil, d.format,
			deriveFingerprint(d.fingerprint, "map")), nil
	}

	return fromOwned(records[0].Schema(), records, d.format,
		deriveFingerprint(d.fingerprint, "map")), nil
}

// MapRows applies fn to each row individually. Output rows may add
// columns; all outputs must agree on keys and value types.
func (d *Dataset) MapRows(fn RowFunc) (*Dataset, error) {
	if fn == nil {
		return nil, errors.NewInvalidInputError("Map", "row function is nil")
	}

	rows := make([]Row, 0, d.Len())
	it := d.Iter(0)
	defer it.Close()
	for it.Next() {
		batch, err := it.Rows()
		if err != nil {
			return nil, err
		}
		for _, row := range batch {
			out, err := fn(row)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, errors.NewInvalidInputError("Map",
					"row function returned nil row")
			}
			rows = append(rows, out)
		}
	}
	if err := it.Err(); err != nil {
		return nil, errors.NewInternalError("Map", err)
	}

	out, err := FromRows(rows, d.Columns())
	if err != nil {
		return nil, err
	}
	out.format = d.format
	out.fingerprint = deriveFingerprint(d.fingerprint, "map_rows")
	return out, nil
}

// collectBatches materializes the dataset's rows as retained records
// of batchSize rows each.
func (d *Dataset) collectBatches(batchSize int) ([]arrow.Record, error) {
	var records []arrow.Record
	it := d.Iter(batchSize)
	defer it.Close()
	for it.Next() {
		rec := it.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := it.Err(); err != nil {
		releaseRecords(records)
		return nil, errors.NewInternalError("Map", err)
	}
	return records, nil
}

// runBatches executes the worker over the input batches, in parallel
// when the override forces it or the dataset crosses the threshold.
func (d *Dataset) runBatches(
	inputs []arrow.Record, op *config.OperationConfig, worker func(int, arrow.Record) batchResult,
) []batchResult {
	cfg := config.GetGlobalConfig()
	usePool := (op != nil && op.ForceParallel) || d.Len() >= cfg.ParallelThreshold
	if op != nil && op.DisableParallel {
		usePool = false
	}
	if !usePool {
		results := make([]batchResult, len(inputs))
		for i, in := range inputs {
			results[i] = worker(i, in)
		}
		return results
	}

	pool := parallel.NewWorkerPool(cfg.WorkerPoolSize)
	defer pool.Close()
	return parallel.ProcessIndexed(pool, inputs, worker)
}

// collectResults validates worker outputs: first error wins, and all
// output batches must share the first batch's schema.
func collectResults(op string, results []batchResult) ([]arrow.Record, error) {
	records := make([]arrow.Record, 0, len(results))
	fail := func(err error) ([]arrow.Record, error) {
		for _, r := range results {
			if r.rec != nil {
				r.rec.Release()
			}
		}
		return nil, err
	}

	var schema *arrow.Schema
	for i, r := range results {
		if r.err != nil {
			return fail(r.err)
		}
		if schema == nil {
			schema = r.rec.Schema()
		} else if !schema.Equal(r.rec.Schema()) {
			return fail(errors.NewSchemaMismatchError(op,
				fmt.Sprintf("output batch %d differs from batch 0", i)))
		}
		records = append(records, r.rec)
	}
	return records, nil
}

func releaseRecords(records []arrow.Record) {
	for _, rec := range records {
		rec.Release()
	}
}

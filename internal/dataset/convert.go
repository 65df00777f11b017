package dataset

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/slices"

	"github.com/okapidata/okapi/internal/errors"
	"github.com/okapidata/okapi/internal/frame"
)

// FromFrame constructs a dataset from a columnar frame. The dataset
// shares column storage with the frame.
func FromFrame(f *frame.Frame) (*Dataset, error) {
	if f == nil {
		return nil, errors.NewInvalidInputError("FromFrame", "frame is nil")
	}
	rec := f.Record()
	defer rec.Release()
	return New(rec)
}

// ToFrame exports the dataset as a single columnar frame. Multi-batch
// datasets are concatenated column by column.
func (d *Dataset) ToFrame() (*frame.Frame, error) {
	if len(d.records) == 0 {
		return frame.New(), nil
	}
	if len(d.records) == 1 {
		return frame.FromRecord(d.records[0]), nil
	}

	frames := make([]*frame.Frame, len(d.records))
	for i, rec := range d.records {
		frames[i] = frame.FromRecord(rec)
	}
	defer func() {
		for _, fr := range frames {
			fr.Release()
		}
	}()

	merged, err := frames[0].Concat(frames[1:]...)
	if err != nil {
		return nil, errors.NewInternalError("ToFrame", err)
	}
	return merged, nil
}

// FromRecord constructs a single-batch dataset from an Arrow record.
// The dataset retains the record.
func FromRecord(rec arrow.Record) (*Dataset, error) {
	if rec == nil {
		return nil, errors.NewInvalidInputError("FromRecord", "record is nil")
	}
	return New(rec)
}

// ToRecord exports the dataset as one contiguous record batch. The
// caller must release the record.
func (d *Dataset) ToRecord() (arrow.Record, error) {
	if len(d.records) == 0 {
		return nil, errors.ErrEmptyDataset
	}
	if len(d.records) == 1 {
		rec := d.records[0]
		rec.Retain()
		return rec, nil
	}
	rec, err := concatRecords(d.schema, d.records)
	if err != nil {
		return nil, errors.NewInternalError("ToRecord", err)
	}
	return rec, nil
}

// FromTable constructs a dataset from an Arrow table, rechunked into
// batches of batchSize rows (0 uses the configured default).
func FromTable(table arrow.Table, batchSize int) (*Dataset, error) {
	if table == nil {
		return nil, errors.NewInvalidInputError("FromTable", "table is nil")
	}
	records, err := chunkTable(table, batchSize)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Dataset{schema: table.Schema(), format: FormatRows,
			fingerprint: fingerprintSchema(table.Schema(), 0)}, nil
	}
	ds := fromOwned(table.Schema(), records, FormatRows, 0)
	ds.fingerprint = fingerprintSchema(ds.schema, ds.Len())
	return ds, nil
}

// ToTable exports the dataset as an Arrow table sharing storage with
// the dataset's batches.
func (d *Dataset) ToTable() (arrow.Table, error) {
	if len(d.records) == 0 {
		return nil, errors.ErrEmptyDataset
	}
	return array.NewTableFromRecords(d.schema, d.records), nil
}

// FromRows constructs a dataset from row maps. The column order is
// taken from the given order for keys present there, with any extra
// keys appended in sorted order. Column types are inferred from the
// first non-nil value of each column.
func FromRows(rows []Row, order []string) (*Dataset, error) {
	if len(rows) == 0 {
		return &Dataset{format: FormatRows}, nil
	}

	rec, err := recordFromRows(rows, order)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return New(rec)
}

// chunkTable reads a table into record batches of up to batchSize
// rows; chunk boundaries in the table's columns are respected, so
// batches straddling a boundary come out shorter.
func chunkTable(table arrow.Table, batchSize int) ([]arrow.Record, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize()
	}

	reader := array.NewTableReader(table, int64(batchSize))
	defer reader.Release()

	var records []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	return records, nil
}

// columnOrder resolves the output column order for inferred rows.
func columnOrder(rows []Row, order []string) []string {
	seen := make(map[string]bool, len(order))
	result := make([]string, 0, len(order))
	for _, name := range order {
		if _, exists := rows[0][name]; exists && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	var extras []string
	for key := range rows[0] {
		if !seen[key] {
			extras = append(extras, key)
		}
	}
	slices.Sort(extras)
	return append(result, extras...)
}

// recordFromRows builds a record batch from row maps, inferring the
// type of each column from its first non-nil value.
func recordFromRows(rows []Row, order []string) (arrow.Record, error) {
	mem := memory.NewGoAllocator()
	names := columnOrder(rows, order)

	fields := make([]arrow.Field, 0, len(names))
	arrs := make([]arrow.Array, 0, len(names))
	for _, name := range names {
		arr, dt, err := buildColumn(mem, rows, name)
		if err != nil {
			for _, a := range arrs {
				a.Release()
			}
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: name, Type: dt, Nullable: true})
		arrs = append(arrs, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	rec := array.NewRecord(schema, arrs, int64(len(rows)))
	for _, a := range arrs {
		a.Release()
	}
	return rec, nil
}

// buildColumn builds one Arrow array from the named value of each row.
func buildColumn(mem memory.Allocator, rows []Row, name string) (arrow.Array, arrow.DataType, error) {
	var sample interface{}
	for _, row := range rows {
		if v, exists := row[name]; exists && v != nil {
			sample = v
			break
		}
	}

	switch sample.(type) {
	case string, nil:
		// All-nil columns default to string.
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(s)
		}
		return builder.NewArray(), arrow.BinaryTypes.String, nil
	case int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			i, ok := v.(int64)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(i)
		}
		return builder.NewArray(), arrow.PrimitiveTypes.Int64, nil
	case int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			i, ok := v.(int32)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(i)
		}
		return builder.NewArray(), arrow.PrimitiveTypes.Int32, nil
	case float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			f, ok := v.(float64)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(f)
		}
		return builder.NewArray(), arrow.PrimitiveTypes.Float64, nil
	case float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			f, ok := v.(float32)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(f)
		}
		return builder.NewArray(), arrow.PrimitiveTypes.Float32, nil
	case bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for _, row := range rows {
			v, exists := row[name]
			if !exists || v == nil {
				builder.AppendNull()
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return nil, nil, typeError(name, v)
			}
			builder.Append(b)
		}
		return builder.NewArray(), arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, nil, errors.NewUnsupportedTypeError("FromRows", fmt.Sprintf("%T", sample))
	}
}

func typeError(column string, value interface{}) error {
	return &errors.DatasetError{
		Op:      "FromRows",
		Column:  column,
		Message: fmt.Sprintf("mixed value types: unexpected %T", value),
	}
}

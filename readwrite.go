package okapi

import (
	gio "io"

	"github.com/apache/arrow-go/v18/arrow/memory"

	okio "github.com/okapidata/okapi/internal/io"
)

// CSVOptions configures CSV reading and writing.
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
	// BatchSize is the number of rows per stored batch (0 = default)
	BatchSize int
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	opts := okio.DefaultCSVOptions()
	return CSVOptions{
		Delimiter:        opts.Delimiter,
		Comment:          opts.Comment,
		Header:           opts.Header,
		SkipInitialSpace: opts.SkipInitialSpace,
		BatchSize:        opts.BatchSize,
	}
}

// ParquetOptions configures Parquet reading and writing.
type ParquetOptions struct {
	// Compression type: snappy, gzip, lz4, zstd or uncompressed
	Compression string
	// BatchSize for reading/writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	opts := okio.DefaultParquetOptions()
	return ParquetOptions{
		Compression: opts.Compression,
		BatchSize:   opts.BatchSize,
	}
}

// ReadCSV reads CSV data into a Dataset, inferring column types from
// the values.
func ReadCSV(r gio.Reader, opts CSVOptions, mem memory.Allocator) (*Dataset, error) {
	reader := okio.NewCSVReader(r, csvOptions(opts), mem)
	ds, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// WriteCSV writes a Dataset as CSV.
func WriteCSV(w gio.Writer, ds *Dataset, opts CSVOptions) error {
	writer := okio.NewCSVWriter(w, csvOptions(opts))
	return writer.Write(ds.ds)
}

// ReadParquet reads Parquet data into a Dataset.
func ReadParquet(r gio.Reader, opts ParquetOptions, mem memory.Allocator) (*Dataset, error) {
	reader := okio.NewParquetReader(r, parquetOptions(opts), mem)
	ds, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// WriteParquet writes a Dataset as a Parquet file.
func WriteParquet(w gio.Writer, ds *Dataset, opts ParquetOptions) error {
	writer := okio.NewParquetWriter(w, parquetOptions(opts))
	return writer.Write(ds.ds)
}

// ReadIPC reads an Arrow IPC stream into a Dataset, preserving the
// stream's batch boundaries.
func ReadIPC(r gio.Reader, mem memory.Allocator) (*Dataset, error) {
	reader := okio.NewIPCReader(r, mem)
	ds, err := reader.Read()
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// WriteIPC writes a Dataset as an Arrow IPC stream, one message per
// stored batch.
func WriteIPC(w gio.Writer, ds *Dataset, mem memory.Allocator) error {
	writer := okio.NewIPCWriter(w, mem)
	return writer.Write(ds.ds)
}

func csvOptions(opts CSVOptions) okio.CSVOptions {
	return okio.CSVOptions{
		Delimiter:        opts.Delimiter,
		Comment:          opts.Comment,
		Header:           opts.Header,
		SkipInitialSpace: opts.SkipInitialSpace,
		BatchSize:        opts.BatchSize,
	}
}

func parquetOptions(opts ParquetOptions) okio.ParquetOptions {
	return okio.ParquetOptions{
		Compression: opts.Compression,
		BatchSize:   opts.BatchSize,
	}
}

package io

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewParquetWriter(&buf, DefaultParquetOptions())
	require.NoError(t, writer.Write(ds))
	require.NotZero(t, buf.Len())

	reader := NewParquetReader(&buf, DefaultParquetOptions(), mem)
	back, err := reader.Read()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, ds.Len(), back.Len())
	assert.Equal(t, ds.Columns(), back.Columns())

	row, err := back.Row(2)
	require.NoError(t, err)
	assert.Equal(t, "Charlie", row["name"])
	assert.Equal(t, int64(35), row["age"])
	assert.Equal(t, true, row["active"])
}

func TestParquetCompressionCodecs(t *testing.T) {
	codecs := []string{"snappy", "gzip", "zstd", "uncompressed"}

	mem := memory.NewGoAllocator()
	for _, codec := range codecs {
		t.Run(codec, func(t *testing.T) {
			ds := buildTestDataset(t, mem)
			defer ds.Release()

			options := DefaultParquetOptions()
			options.Compression = codec

			var buf bytes.Buffer
			writer := NewParquetWriter(&buf, options)
			require.NoError(t, writer.Write(ds))

			reader := NewParquetReader(&buf, DefaultParquetOptions(), mem)
			back, err := reader.Read()
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, ds.Len(), back.Len())
		})
	}
}

func TestParquetWriterEmptyDataset(t *testing.T) {
	mem := memory.NewGoAllocator()
	reader := NewCSVReader(bytes.NewReader(nil), DefaultCSVOptions(), mem)
	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewParquetWriter(&buf, DefaultParquetOptions())
	assert.Error(t, writer.Write(ds))
}

func TestParquetReaderInvalidData(t *testing.T) {
	mem := memory.NewGoAllocator()
	reader := NewParquetReader(bytes.NewReader([]byte("not parquet")), DefaultParquetOptions(), mem)

	_, err := reader.Read()
	assert.Error(t, err)
}

func TestParquetReaderRebatches(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewParquetWriter(&buf, DefaultParquetOptions())
	require.NoError(t, writer.Write(ds))

	options := DefaultParquetOptions()
	options.BatchSize = 2

	reader := NewParquetReader(&buf, options, mem)
	back, err := reader.Read()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, 3, back.Len())
	assert.Equal(t, 2, back.NumBatches())
}

package io

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapidata/okapi/internal/dataset"
)

func TestIPCRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewIPCWriter(&buf, mem)
	require.NoError(t, writer.Write(ds))

	reader := NewIPCReader(&buf, mem)
	back, err := reader.Read()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, ds.Len(), back.Len())
	assert.Equal(t, ds.Columns(), back.Columns())
	assert.True(t, ds.Schema().Equal(back.Schema()))

	row, err := back.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, int64(25), row["age"])
}

func TestIPCPreservesBatchBoundaries(t *testing.T) {
	mem := memory.NewGoAllocator()
	first := buildTestDataset(t, mem)
	defer first.Release()
	second := buildTestDataset(t, mem)
	defer second.Release()

	ds, err := first.Concat(second)
	require.NoError(t, err)
	defer ds.Release()
	require.Equal(t, 2, ds.NumBatches())

	var buf bytes.Buffer
	writer := NewIPCWriter(&buf, mem)
	require.NoError(t, writer.Write(ds))

	reader := NewIPCReader(&buf, mem)
	back, err := reader.Read()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, 6, back.Len())
	assert.Equal(t, 2, back.NumBatches())
}

func TestIPCWriterNoSchema(t *testing.T) {
	mem := memory.NewGoAllocator()
	empty, err := dataset.New()
	require.NoError(t, err)
	defer empty.Release()

	var buf bytes.Buffer
	writer := NewIPCWriter(&buf, mem)
	assert.Error(t, writer.Write(empty))
}

func TestIPCReaderInvalidData(t *testing.T) {
	mem := memory.NewGoAllocator()
	reader := NewIPCReader(bytes.NewReader([]byte("not an ipc stream")), mem)

	_, err := reader.Read()
	assert.Error(t, err)
}

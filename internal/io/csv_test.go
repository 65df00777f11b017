package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapidata/okapi/internal/dataset"
)

func buildTestDataset(t *testing.T, mem memory.Allocator) *dataset.Dataset {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "age", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	builder.Field(0).(*array.StringBuilder).AppendValues([]string{"Alice", "Bob", "Charlie"}, nil)
	builder.Field(1).(*array.Int64Builder).AppendValues([]int64{25, 30, 35}, nil)
	builder.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false, true}, nil)

	rec := builder.NewRecord()
	defer rec.Release()

	ds, err := dataset.New(rec)
	require.NoError(t, err)
	return ds
}

func TestCSVReaderBasic(t *testing.T) {
	csvData := `name,age,salary
Alice,25,50000.5
Bob,30,60000.0
Charlie,35,70000.25`

	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader(csvData), DefaultCSVOptions(), mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"name", "age", "salary"}, ds.Columns())

	row, err := ds.Row(0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, int64(25), row["age"])
	assert.InDelta(t, 50000.5, row["salary"], 0.001)
}

func TestCSVReaderTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		csvData  string
		column   string
		expected arrow.DataType
	}{
		{
			name:     "integer column",
			csvData:  "value\n1\n2\n3",
			column:   "value",
			expected: arrow.PrimitiveTypes.Int64,
		},
		{
			name:     "float column",
			csvData:  "value\n1.5\n2.5\n3.5",
			column:   "value",
			expected: arrow.PrimitiveTypes.Float64,
		},
		{
			name:     "bool column",
			csvData:  "value\ntrue\nfalse\nTrue",
			column:   "value",
			expected: arrow.FixedWidthTypes.Boolean,
		},
		{
			name:     "string column",
			csvData:  "value\nfoo\n2\n3",
			column:   "value",
			expected: arrow.BinaryTypes.String,
		},
		{
			name:     "all empty defaults to string",
			csvData:  "value\n\n\n",
			column:   "value",
			expected: arrow.BinaryTypes.String,
		},
	}

	mem := memory.NewGoAllocator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewCSVReader(strings.NewReader(tt.csvData), DefaultCSVOptions(), mem)
			ds, err := reader.Read()
			require.NoError(t, err)
			defer ds.Release()

			schema := ds.Schema()
			require.NotNil(t, schema)
			idx := schema.FieldIndices(tt.column)
			require.Len(t, idx, 1)
			assert.True(t, arrow.TypeEqual(tt.expected, schema.Field(idx[0]).Type))
		})
	}
}

func TestCSVReaderNoHeader(t *testing.T) {
	csvData := "Alice,25\nBob,30"

	options := DefaultCSVOptions()
	options.Header = false

	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader(csvData), options, mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"column_0", "column_1"}, ds.Columns())
}

func TestCSVReaderHeaderOnly(t *testing.T) {
	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader("name,age\n"), DefaultCSVOptions(), mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, []string{"name", "age"}, ds.Columns())
}

func TestCSVReaderEmpty(t *testing.T) {
	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader(""), DefaultCSVOptions(), mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 0, ds.Len())
}

func TestCSVReaderBatching(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("id\n")
	for i := 0; i < 5; i++ {
		sb.WriteString("1\n")
	}

	options := DefaultCSVOptions()
	options.BatchSize = 2

	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader(sb.String()), options, mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, 3, ds.NumBatches())
}

func TestCSVWriterBasic(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewCSVWriter(&buf, DefaultCSVOptions())
	require.NoError(t, writer.Write(ds))

	expected := "name,age,active\nAlice,25,true\nBob,30,false\nCharlie,35,true\n"
	assert.Equal(t, expected, buf.String())
}

func TestCSVWriterNoHeader(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	options := DefaultCSVOptions()
	options.Header = false

	var buf bytes.Buffer
	writer := NewCSVWriter(&buf, options)
	require.NoError(t, writer.Write(ds))

	assert.Equal(t, "Alice,25,true\nBob,30,false\nCharlie,35,true\n", buf.String())
}

func TestCSVRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	ds := buildTestDataset(t, mem)
	defer ds.Release()

	var buf bytes.Buffer
	writer := NewCSVWriter(&buf, DefaultCSVOptions())
	require.NoError(t, writer.Write(ds))

	reader := NewCSVReader(&buf, DefaultCSVOptions(), mem)
	back, err := reader.Read()
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, ds.Len(), back.Len())
	assert.Equal(t, ds.Columns(), back.Columns())

	row, err := back.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "Bob", row["name"])
	assert.Equal(t, int64(30), row["age"])
	assert.Equal(t, false, row["active"])
}

func TestCSVCustomDelimiter(t *testing.T) {
	csvData := "name;age\nAlice;25"

	options := DefaultCSVOptions()
	options.Delimiter = ';'

	mem := memory.NewGoAllocator()
	reader := NewCSVReader(strings.NewReader(csvData), options, mem)

	ds, err := reader.Read()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, []string{"name", "age"}, ds.Columns())
}

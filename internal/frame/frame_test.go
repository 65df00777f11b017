package frame

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapidata/okapi/internal/series"
)

func buildTestFrame(mem memory.Allocator) *Frame {
	names := series.New("name", []string{"Alice", "Bob", "Charlie", "David"}, mem)
	ages := series.New("age", []int64{25, 30, 35, 28}, mem)
	scores := series.New("score", []float64{85.5, 92.0, 78.3, 88.1}, mem)
	return New(names, ages, scores)
}

func TestNewFrame(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 3, f.Width())
	assert.Equal(t, []string{"name", "age", "score"}, f.Columns())
	assert.True(t, f.HasColumn("age"))
	assert.False(t, f.HasColumn("missing"))
}

func TestFrameColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	col, ok := f.Column("age")
	require.True(t, ok)
	assert.Equal(t, "age", col.Name())
	assert.Equal(t, arrow.PrimitiveTypes.Int64, col.DataType())

	_, ok = f.Column("missing")
	assert.False(t, ok)
}

func TestFrameSelectAndDrop(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	selected := f.Select("name", "score")
	assert.Equal(t, []string{"name", "score"}, selected.Columns())
	assert.Equal(t, 4, selected.Len())

	dropped := f.Drop("score")
	assert.Equal(t, []string{"name", "age"}, dropped.Columns())
}

func TestFrameSlice(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	tests := []struct {
		name        string
		start, end  int
		expectedLen int
	}{
		{name: "middle rows", start: 1, end: 3, expectedLen: 2},
		{name: "end clamped", start: 2, end: 10, expectedLen: 2},
		{name: "invalid range", start: 3, end: 1, expectedLen: 0},
		{name: "start beyond data", start: 10, end: 12, expectedLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sliced := f.Slice(tt.start, tt.end)
			defer sliced.Release()
			assert.Equal(t, tt.expectedLen, sliced.Len())
		})
	}
}

func TestFrameSliceValues(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	sliced := f.Slice(1, 3)
	defer sliced.Release()

	val, err := sliced.ValueAt("name", 0)
	require.NoError(t, err)
	assert.Equal(t, "Bob", val)

	val, err = sliced.ValueAt("age", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(35), val)
}

func TestFrameConcat(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := New(
		series.New("id", []int64{1, 2}, mem),
		series.New("label", []string{"x", "y"}, mem),
	)
	defer a.Release()
	b := New(
		series.New("id", []int64{3}, mem),
		series.New("label", []string{"z"}, mem),
	)
	defer b.Release()

	merged, err := a.Concat(b)
	require.NoError(t, err)
	defer merged.Release()

	assert.Equal(t, 3, merged.Len())
	val, err := merged.ValueAt("label", 2)
	require.NoError(t, err)
	assert.Equal(t, "z", val)
}

func TestFrameConcatMismatchedColumns(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := New(series.New("id", []int64{1}, mem))
	defer a.Release()
	b := New(series.New("other", []int64{2}, mem))
	defer b.Release()

	_, err := a.Concat(b)
	assert.Error(t, err)
}

func TestFrameRecordRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	rec := f.Record()
	defer rec.Release()

	assert.Equal(t, int64(4), rec.NumRows())
	assert.Equal(t, int64(3), rec.NumCols())
	assert.Equal(t, "name", rec.Schema().Field(0).Name)

	back := FromRecord(rec)
	defer back.Release()

	assert.Equal(t, f.Columns(), back.Columns())
	assert.Equal(t, f.Len(), back.Len())

	val, err := back.ValueAt("score", 3)
	require.NoError(t, err)
	assert.InDelta(t, 88.1, val, 1e-9)
}

func TestFrameRowAt(t *testing.T) {
	mem := memory.NewGoAllocator()

	f := buildTestFrame(mem)
	defer f.Release()

	row, err := f.RowAt(0)
	require.NoError(t, err)
	assert.Equal(t, "Alice", row["name"])
	assert.Equal(t, int64(25), row["age"])

	_, err = f.RowAt(99)
	assert.Error(t, err)
}

func TestFrameString(t *testing.T) {
	mem := memory.NewGoAllocator()

	empty := New()
	assert.Equal(t, "Frame[empty]", empty.String())

	f := buildTestFrame(mem)
	defer f.Release()
	assert.Contains(t, f.String(), "Frame[4x3]")
}

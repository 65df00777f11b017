package dataset

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapidata/okapi/internal/frame"
	"github.com/okapidata/okapi/internal/series"
)

// newTestRecord builds one record batch of employee data.
func newTestRecord(mem memory.Allocator, names []string, ages []int64) arrow.Record {
	f := frame.New(
		series.New("name", names, mem),
		series.New("age", ages, mem),
	)
	defer f.Release()
	return f.Record()
}

// newTestDataset builds a two-batch dataset with five rows.
func newTestDataset(t *testing.T, mem memory.Allocator) *Dataset {
	t.Helper()

	rec1 := newTestRecord(mem, []string{"Alice", "Bob", "Charlie"}, []int64{25, 30, 35})
	defer rec1.Release()
	rec2 := newTestRecord(mem, []string{"David", "Eve"}, []int64{28, 32})
	defer rec2.Release()

	ds, err := New(rec1, rec2)
	require.NoError(t, err)
	return ds
}

func TestNewDataset(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, 2, ds.NumBatches())
	assert.Equal(t, []string{"name", "age"}, ds.Columns())
	assert.Equal(t, FormatRows, ds.Format())
}

func TestNewDatasetEmpty(t *testing.T) {
	ds, err := New()
	require.NoError(t, err)
	defer ds.Release()

	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Columns())
	assert.Equal(t, "Dataset[empty]", ds.String())
}

func TestNewDatasetSchemaMismatch(t *testing.T) {
	mem := memory.NewGoAllocator()

	rec1 := newTestRecord(mem, []string{"a"}, []int64{1})
	defer rec1.Release()

	f := frame.New(series.New("other", []float64{1.5}, mem))
	defer f.Release()
	rec2 := f.Record()
	defer rec2.Release()

	_, err := New(rec1, rec2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "schema mismatch")
}

func TestDatasetRow(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	// Row in the first batch.
	row, err := ds.Row(1)
	require.NoError(t, err)
	assert.Equal(t, "Bob", row["name"])
	assert.Equal(t, int64(30), row["age"])

	// Row crossing into the second batch.
	row, err = ds.Row(3)
	require.NoError(t, err)
	assert.Equal(t, "David", row["name"])

	_, err = ds.Row(5)
	assert.Error(t, err)
	_, err = ds.Row(-1)
	assert.Error(t, err)
}

func TestDatasetGetHonorsFormat(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	t.Run("rows", func(t *testing.T) {
		got, err := ds.Get(0)
		require.NoError(t, err)
		row, ok := got.(Row)
		require.True(t, ok)
		assert.Equal(t, "Alice", row["name"])
	})

	t.Run("columns", func(t *testing.T) {
		view := ds.WithFormat(FormatColumns)
		defer view.Release()

		got, err := view.Get(4)
		require.NoError(t, err)
		fr, ok := got.(*frame.Frame)
		require.True(t, ok)
		defer fr.Release()

		assert.Equal(t, 1, fr.Len())
		val, err := fr.ValueAt("name", 0)
		require.NoError(t, err)
		assert.Equal(t, "Eve", val)
	})

	t.Run("arrow", func(t *testing.T) {
		view := ds.WithFormat(FormatArrow)
		defer view.Release()

		got, err := view.Get(2)
		require.NoError(t, err)
		rec, ok := got.(arrow.Record)
		require.True(t, ok)
		defer rec.Release()

		assert.Equal(t, int64(1), rec.NumRows())
	})
}

func TestWithFormatSharesStorage(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	view := ds.WithFormat(FormatColumns)
	defer view.Release()

	assert.Equal(t, ds.Len(), view.Len())
	assert.Equal(t, ds.NumBatches(), view.NumBatches())
	assert.Equal(t, ds.Fingerprint(), view.Fingerprint())
	assert.Equal(t, FormatColumns, view.Format())
	// Original is unchanged.
	assert.Equal(t, FormatRows, ds.Format())
}

func TestDatasetSelect(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	selected, err := ds.Select("age")
	require.NoError(t, err)
	defer selected.Release()

	assert.Equal(t, []string{"age"}, selected.Columns())
	assert.Equal(t, 5, selected.Len())
	assert.NotEqual(t, ds.Fingerprint(), selected.Fingerprint())

	_, err = ds.Select("missing")
	assert.Error(t, err)
}

func TestDatasetSlice(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	tests := []struct {
		name        string
		start, end  int
		expectedLen int
		firstName   string
	}{
		{name: "within first batch", start: 0, end: 2, expectedLen: 2, firstName: "Alice"},
		{name: "across batches", start: 2, end: 5, expectedLen: 3, firstName: "Charlie"},
		{name: "second batch only", start: 3, end: 5, expectedLen: 2, firstName: "David"},
		{name: "end clamped", start: 4, end: 100, expectedLen: 1, firstName: "Eve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sliced, err := ds.Slice(tt.start, tt.end)
			require.NoError(t, err)
			defer sliced.Release()

			assert.Equal(t, tt.expectedLen, sliced.Len())

			row, err := sliced.Row(0)
			require.NoError(t, err)
			assert.Equal(t, tt.firstName, row["name"])
		})
	}

	t.Run("empty result", func(t *testing.T) {
		sliced, err := ds.Slice(5, 7)
		require.NoError(t, err)
		defer sliced.Release()
		assert.Equal(t, 0, sliced.Len())
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := ds.Slice(-1, 2)
		assert.Error(t, err)
		_, err = ds.Slice(3, 1)
		assert.Error(t, err)
	})
}

func TestDatasetConcat(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := newTestDataset(t, mem)
	defer a.Release()
	b := newTestDataset(t, mem)
	defer b.Release()

	merged, err := a.Concat(b)
	require.NoError(t, err)
	defer merged.Release()

	assert.Equal(t, 10, merged.Len())

	row, err := merged.Row(5)
	require.NoError(t, err)
	assert.Equal(t, "Alice", row["name"])
}

func TestDatasetConcatSchemaMismatch(t *testing.T) {
	mem := memory.NewGoAllocator()

	a := newTestDataset(t, mem)
	defer a.Release()

	f := frame.New(series.New("id", []int64{1}, mem))
	defer f.Release()
	b, err := FromFrame(f)
	require.NoError(t, err)
	defer b.Release()

	_, err = a.Concat(b)
	assert.Error(t, err)
}

func TestDatasetRecordAccess(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	rec, err := ds.Record(0)
	require.NoError(t, err)
	defer rec.Release()
	assert.Equal(t, int64(3), rec.NumRows())

	_, err = ds.Record(2)
	assert.Error(t, err)
}

func TestDatasetString(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	s := ds.String()
	assert.Contains(t, s, "5x2")
	assert.Contains(t, s, "format=rows")
}

func TestFingerprintLineage(t *testing.T) {
	mem := memory.NewGoAllocator()

	ds := newTestDataset(t, mem)
	defer ds.Release()

	other := newTestDataset(t, mem)
	defer other.Release()

	// Same source, same lineage: equal fingerprints.
	assert.Equal(t, ds.Fingerprint(), other.Fingerprint())

	s1, err := ds.Slice(0, 2)
	require.NoError(t, err)
	defer s1.Release()
	s2, err := ds.Slice(0, 3)
	require.NoError(t, err)
	defer s2.Release()

	assert.NotEqual(t, s1.Fingerprint(), s2.Fingerprint())
	assert.NotEqual(t, ds.Fingerprint(), s1.Fingerprint())
}

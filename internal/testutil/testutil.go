// Package testutil provides common testing utilities to reduce code
// duplication across test files in the okapi dataset library.
//
// This package consolidates the patterns most test files repeat:
// - Memory allocator setup
// - Standard fixture dataset and frame creation
// - Dataset equality assertions
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapidata/okapi/internal/dataset"
	"github.com/okapidata/okapi/internal/frame"
	"github.com/okapidata/okapi/internal/series"
)

const (
	// defaultRowCount is the default number of rows in fixture datasets.
	defaultRowCount = 4
)

// FixtureOption configures fixture dataset creation.
type FixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	rowCount   int
	batchSize  int
	withActive bool
}

// WithRowCount sets the number of rows in fixture data.
func WithRowCount(count int) FixtureOption {
	return func(cfg *fixtureConfig) {
		cfg.rowCount = count
	}
}

// WithBatchSize splits the fixture into stored batches of the given size.
func WithBatchSize(size int) FixtureOption {
	return func(cfg *fixtureConfig) {
		cfg.batchSize = size
	}
}

// WithActiveColumn includes an 'active' boolean column.
func WithActiveColumn() FixtureOption {
	return func(cfg *fixtureConfig) {
		cfg.withActive = true
	}
}

// CreateTestFrame creates a standard employee frame.
//
// Default columns:
// - name (string): ["Alice", "Bob", "Charlie", "David"]
// - age (int64): [25, 30, 35, 28]
// - department (string): ["Engineering", "Sales", "Engineering", "Marketing"]
// - salary (int64): [100000, 80000, 120000, 75000]
func CreateTestFrame(allocator memory.Allocator, opts ...FixtureOption) *frame.Frame {
	cfg := applyOptions(opts)

	cols := []frame.ISeries{
		series.New("name", generateNames(cfg.rowCount), allocator),
		series.New("age", generateAges(cfg.rowCount), allocator),
		series.New("department", generateDepartments(cfg.rowCount), allocator),
		series.New("salary", generateSalaries(cfg.rowCount), allocator),
	}

	if cfg.withActive {
		cols = append(cols, series.New("active", generateActiveFlags(cfg.rowCount), allocator))
	}

	return frame.New(cols...)
}

// CreateTestDataset creates a standard employee dataset with the same
// columns as CreateTestFrame, optionally split into multiple batches.
func CreateTestDataset(tb testing.TB, allocator memory.Allocator, opts ...FixtureOption) *dataset.Dataset {
	tb.Helper()
	cfg := applyOptions(opts)

	fr := CreateTestFrame(allocator, opts...)
	defer fr.Release()

	if cfg.batchSize <= 0 {
		ds, err := dataset.FromFrame(fr)
		require.NoError(tb, err)
		return ds
	}

	rec := fr.Record()
	defer rec.Release()

	ds, err := dataset.FromRecord(rec)
	require.NoError(tb, err)
	defer ds.Release()

	rebatched, err := rebatch(ds, cfg.batchSize)
	require.NoError(tb, err)
	return rebatched
}

// CreateSimpleTestDataset creates a simple 2-column dataset for basic testing.
func CreateSimpleTestDataset(tb testing.TB, allocator memory.Allocator) *dataset.Dataset {
	tb.Helper()

	fr := frame.New(
		series.New("name", []string{"Alice", "Bob"}, allocator),
		series.New("age", []int64{25, 30}, allocator),
	)
	defer fr.Release()

	ds, err := dataset.FromFrame(fr)
	require.NoError(tb, err)
	return ds
}

// AssertDatasetsEqual performs row-by-row equality comparison of datasets.
func AssertDatasetsEqual(t *testing.T, expected, actual *dataset.Dataset) {
	t.Helper()

	require.NotNil(t, expected, "expected dataset should not be nil")
	require.NotNil(t, actual, "actual dataset should not be nil")

	assert.Equal(t, expected.Len(), actual.Len(), "dataset lengths should match")
	assert.Equal(t, expected.Columns(), actual.Columns(), "dataset columns should match")

	for i := 0; i < expected.Len(); i++ {
		want, err := expected.Row(i)
		require.NoError(t, err)
		got, err := actual.Row(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "row %d should match", i)
	}
}

// AssertDatasetHasColumns verifies that a dataset has exactly the expected columns.
func AssertDatasetHasColumns(t *testing.T, ds *dataset.Dataset, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, ds, "dataset should not be nil")
	assert.Equal(t, expectedColumns, ds.Columns())
}

// AssertDatasetNotEmpty verifies that a dataset has rows and columns.
func AssertDatasetNotEmpty(t *testing.T, ds *dataset.Dataset) {
	t.Helper()

	require.NotNil(t, ds, "dataset should not be nil")
	assert.Positive(t, ds.Len(), "dataset should not be empty")
	assert.NotEmpty(t, ds.Columns(), "dataset should have columns")
}

func applyOptions(opts []FixtureOption) *fixtureConfig {
	cfg := &fixtureConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// rebatch splits a dataset into stored batches of the given size.
func rebatch(ds *dataset.Dataset, batchSize int) (*dataset.Dataset, error) {
	table, err := ds.ToTable()
	if err != nil {
		return nil, err
	}
	defer table.Release()
	return dataset.FromTable(table, batchSize)
}

// Helper functions for generating fixture data

func generateNames(count int) []string {
	baseNames := []string{"Alice", "Bob", "Charlie", "David", "Eve", "Frank", "Grace", "Henry"}
	names := make([]string, count)
	for i := range count {
		names[i] = baseNames[i%len(baseNames)]
	}
	return names
}

func generateAges(count int) []int64 {
	baseAges := []int64{25, 30, 35, 28, 32, 45, 29, 38}
	ages := make([]int64, count)
	for i := range count {
		ages[i] = baseAges[i%len(baseAges)]
	}
	return ages
}

func generateDepartments(count int) []string {
	baseDepts := []string{"Engineering", "Sales", "Engineering", "Marketing", "HR", "Finance", "Engineering", "Sales"}
	departments := make([]string, count)
	for i := range count {
		departments[i] = baseDepts[i%len(baseDepts)]
	}
	return departments
}

func generateSalaries(count int) []int64 {
	baseSalaries := []int64{100000, 80000, 120000, 75000, 90000, 110000, 95000, 85000}
	salaries := make([]int64, count)
	for i := range count {
		salaries[i] = baseSalaries[i%len(baseSalaries)]
	}
	return salaries
}

func generateActiveFlags(count int) []bool {
	baseFlags := []bool{true, true, false, true, true, false, true, false}
	flags := make([]bool, count)
	for i := range count {
		flags[i] = baseFlags[i%len(baseFlags)]
	}
	return flags
}

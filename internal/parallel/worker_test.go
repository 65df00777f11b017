package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess(t *testing.T) {
	wp := NewWorkerPool(4)
	defer wp.Close()

	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	results := Process(wp, items, func(x int) int {
		return x * x
	})

	assert.Len(t, results, len(items))

	sum := 0
	for _, r := range results {
		sum += r
	}
	assert.Equal(t, 204, sum) // 1+4+9+...+64
}

func TestProcessEmpty(t *testing.T) {
	wp := NewWorkerPool(2)
	defer wp.Close()

	results := Process(wp, []string{}, func(s string) string { return s })
	assert.Nil(t, results)
}

func TestProcessIndexedPreservesOrder(t *testing.T) {
	wp := NewWorkerPool(8)
	defer wp.Close()

	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := ProcessIndexed(wp, items, func(idx, x int) int {
		return x * 2
	})

	assert.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
}

func TestProcessIndexedRunsAllItems(t *testing.T) {
	wp := NewWorkerPool(0) // auto-detect
	defer wp.Close()

	var calls int64
	items := make([]int, 50)
	ProcessIndexed(wp, items, func(idx, x int) int {
		atomic.AddInt64(&calls, 1)
		return idx
	})

	assert.Equal(t, int64(50), calls)
}

func TestWorkerPoolCloseIsIdempotent(t *testing.T) {
	wp := NewWorkerPool(2)
	wp.Close()
	wp.Close()
}

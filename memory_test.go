package okapi

import (
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryManager tests the memory management utilities
func TestMemoryManager(t *testing.T) {
	t.Run("track and release multiple resources", func(t *testing.T) {
		mem := memory.NewGoAllocator()
		manager := NewMemoryManager(mem)

		s1 := NewSeries("test1", []int64{1, 2, 3}, mem)
		s2 := NewSeries("test2", []string{"a", "b", "c"}, mem)

		manager.Track(s1)
		manager.Track(s2)
		assert.Equal(t, 2, manager.Count())

		manager.ReleaseAll()
		assert.Equal(t, 0, manager.Count())
	})

	t.Run("ignores nil resources", func(t *testing.T) {
		manager := NewMemoryManager(memory.NewGoAllocator())
		manager.Track(nil)
		assert.Equal(t, 0, manager.Count())
	})

	t.Run("concurrent tracking", func(t *testing.T) {
		mem := memory.NewGoAllocator()
		manager := NewMemoryManager(mem)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				manager.Track(NewSeries("col", []int64{1}, mem))
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, manager.Count())
		manager.ReleaseAll()
	})
}

func TestWithDataset(t *testing.T) {
	var seen int
	err := WithDataset(func() (*Dataset, error) {
		return FromRows([]Row{{"id": int64(1)}, {"id": int64(2)}}, nil)
	}, func(ds *Dataset) error {
		seen = ds.Len()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestWithFrameAndSeries(t *testing.T) {
	mem := memory.NewGoAllocator()

	err := WithSeries(func() ISeries {
		return NewSeries("x", []float64{1.5, 2.5}, mem)
	}, func(s ISeries) error {
		assert.Equal(t, 2, s.Len())
		return nil
	})
	require.NoError(t, err)

	err = WithFrame(func() *Frame {
		return NewFrame(NewSeries("x", []int64{1}, mem))
	}, func(f *Frame) error {
		assert.Equal(t, 1, f.Len())
		return nil
	})
	require.NoError(t, err)
}

func TestWithMemoryManager(t *testing.T) {
	mem := memory.NewGoAllocator()

	err := WithMemoryManager(mem, func(manager *MemoryManager) error {
		for i := 0; i < 5; i++ {
			manager.Track(NewSeries("col", []int64{int64(i)}, mem))
		}
		assert.Equal(t, 5, manager.Count())
		return nil
	})
	require.NoError(t, err)
}

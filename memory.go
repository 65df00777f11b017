package okapi

import (
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Releasable represents any resource that can be released to free memory.
//
// This interface is implemented by Datasets, Frames, Series, and other
// resources that use Apache Arrow memory management. Always call Release()
// when done with a resource to prevent memory leaks.
//
// The recommended pattern is to use defer for automatic cleanup:
//
//	ds, err := okapi.NewDataset(rec)
//	if err != nil {
//		return err
//	}
//	defer ds.Release() // Automatic cleanup
type Releasable interface {
	Release()
}

// MemoryManager helps track and release multiple resources automatically.
//
// MemoryManager is useful for complex scenarios where many short-lived
// resources are created and need bulk cleanup. For most use cases, prefer
// the defer pattern with individual Release() calls for better readability.
//
// Use MemoryManager when:
//   - Creating many temporary datasets or frames in loops
//   - Complex transformation chains with unpredictable resource lifetimes
//   - Bulk operations where individual defer statements are impractical
//
// The MemoryManager is safe for concurrent use from multiple goroutines.
type MemoryManager struct {
	allocator memory.Allocator
	resources []Releasable
	mu        sync.Mutex // Mutex to synchronize access to resources
}

// NewMemoryManager creates a new memory manager with the given allocator
func NewMemoryManager(allocator memory.Allocator) *MemoryManager {
	return &MemoryManager{
		allocator: allocator,
		resources: make([]Releasable, 0),
	}
}

// Track adds a resource to be managed and automatically released
func (m *MemoryManager) Track(resource Releasable) {
	if resource != nil {
		m.mu.Lock()
		m.resources = append(m.resources, resource)
		m.mu.Unlock()
	}
}

// Count returns the number of tracked resources
func (m *MemoryManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resources)
}

// ReleaseAll releases all tracked resources and clears the tracking list
func (m *MemoryManager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, resource := range m.resources {
		if resource != nil {
			resource.Release()
		}
	}
	m.resources = m.resources[:0] // Clear the slice but keep capacity
}

// WithDataset provides automatic resource management for Dataset
// transformation chains. The factory creates a Dataset, the operation
// runs against it, and the Dataset is released when the operation
// returns.
//
// Example:
//
//	err := okapi.WithDataset(func() (*okapi.Dataset, error) {
//		return okapi.FromRows(rows, nil)
//	}, func(ds *okapi.Dataset) error {
//		filtered, err := ds.FilterRows(keepAdults)
//		if err != nil {
//			return err
//		}
//		defer filtered.Release()
//		fmt.Println(filtered)
//		return nil
//	})
//	// Dataset is automatically released here
func WithDataset(factory func() (*Dataset, error), fn func(*Dataset) error) error {
	ds, err := factory()
	if err != nil {
		return err
	}
	defer ds.Release()
	return fn(ds)
}

// WithFrame creates a Frame, executes a function with it, and automatically releases it
func WithFrame(factory func() *Frame, fn func(*Frame) error) error {
	f := factory()
	defer f.Release()
	return fn(f)
}

// WithSeries creates a Series, executes a function with it, and automatically releases it
func WithSeries(factory func() ISeries, fn func(ISeries) error) error {
	s := factory()
	defer s.Release()
	return fn(s)
}

// WithMemoryManager creates a memory manager, executes a function with it, and releases all tracked resources
func WithMemoryManager(allocator memory.Allocator, fn func(*MemoryManager) error) error {
	manager := NewMemoryManager(allocator)
	defer manager.ReleaseAll()
	return fn(manager)
}

package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrExists and ErrNotFound are the raw store errors; entity stores wrap
	// them into domain errors.
	ErrExists   = errors.New("item already exists")
	ErrNotFound = errors.New("item not found")
)

// InMemoryStore is a generic thread-safe map-backed store used by the
// in-memory repository implementations.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return ErrExists
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Get(ctx context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return item, nil
}

func (s *InMemoryStore[T]) Update(ctx context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	s.items[id] = item
	return nil
}

func (s *InMemoryStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Mutate applies fn to the stored item under the write lock, making
// compare-and-swap semantics possible for the in-memory repositories.
func (s *InMemoryStore[T]) Mutate(ctx context.Context, id string, fn func(T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	updated, err := fn(item)
	if err != nil {
		return err
	}
	s.items[id] = updated
	return nil
}

// Find returns the first item matching pred. Iteration order is undefined;
// pred should identify at most one item.
func (s *InMemoryStore[T]) Find(ctx context.Context, pred func(T) bool) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// List returns all items matching filterFn, ordered by sortFn when given.
func (s *InMemoryStore[T]) List(ctx context.Context, filter interface{}, filterFn func(context.Context, T, interface{}) bool, sortFn func(a, b T) bool) ([]T, error) {
	s.mu.RLock()
	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}
	s.mu.RUnlock()

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool { return sortFn(result[i], result[j]) })
	}
	return result, nil
}

// Count returns the number of items matching filterFn.
func (s *InMemoryStore[T]) Count(ctx context.Context, filter interface{}, filterFn func(context.Context, T, interface{}) bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}
	return count, nil
}

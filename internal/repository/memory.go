package repository

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemory returns a Repository that lives only as long as the process.
func NewMemory() Repository {
	return &memoryRepo{items: map[string]string{}}
}

func (r *memoryRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = value
	return nil
}

func (r *memoryRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
	return nil
}

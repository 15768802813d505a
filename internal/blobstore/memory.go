package blobstore

import (
	"context"
	"sync"

	"github.com/semai/wildscan-go/internal/errors"
)

// MemoryGateway is an in-process Gateway used when no object store is
// configured, and by tests.
type MemoryGateway struct {
	mu      sync.RWMutex
	objects map[string]memoryObject

	// FailPuts makes every Put return an error, for exercising the
	// fallback-image path.
	FailPuts bool
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryGateway returns an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{objects: make(map[string]memoryObject)}
}

func (m *MemoryGateway) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.FailPuts {
		return errors.Newf("memory gateway configured to fail puts").
			Category(errors.CategoryObjectStorage).
			Component("blobstore").
			Build()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.objects[key] = memoryObject{data: stored, contentType: contentType}
	return nil
}

func (m *MemoryGateway) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", errors.Newf("object %q not found", key).
			Category(errors.CategoryNotFound).
			Component("blobstore").
			Build()
	}
	return obj.data, obj.contentType, nil
}

func (m *MemoryGateway) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryGateway) Close() error { return nil }

// Len reports the number of stored objects.
func (m *MemoryGateway) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/policydocs/harvester/pkg/errors"
)

// Memory is an in-process object store used in tests and for local
// development without a writable disk.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (s *Memory) Put(ctx context.Context, key string, body []byte, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s: %v", key, err)
	}
	buf := make([]byte, len(body))
	copy(buf, body)
	s.mu.Lock()
	s.objects[key] = Object{Key: key, Body: buf, Metadata: meta}
	s.mu.Unlock()
	return nil
}

func (s *Memory) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "object %s", key)
	}
	// Callers own the returned body; hand out a copy so mutations can never
	// reach the stored object.
	buf := make([]byte, len(obj.Body))
	copy(buf, obj.Body)
	obj.Body = buf
	return &obj, nil
}

func (s *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len reports the number of stored objects.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

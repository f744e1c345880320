// Package storage defines the object-store contract the pipeline writes
// documents through, plus filesystem and in-memory implementations. A put is
// atomic from the caller's perspective: it either fully succeeds or fully
// fails, and a second put to the same key overwrites (last write wins).
package storage

import (
	"context"
	"fmt"

	"github.com/policydocs/harvester/pkg/config"
)

// Metadata is the descriptive metadata stored alongside each object.
type Metadata struct {
	OriginalName string `json:"original-name"`
	Section      string `json:"section"`
	Source       string `json:"source"`
	ContentType  string `json:"content-type"`
	UploadDate   string `json:"upload-date"`
}

// Object is a stored payload with its metadata, returned by Get.
type Object struct {
	Key      string
	Body     []byte
	Metadata Metadata
}

// Store is the object-store contract: put/get/list under a configured
// bucket. Implementations must tolerate concurrent writers to overlapping
// keys via their native atomicity.
type Store interface {
	Put(ctx context.Context, key string, body []byte, meta Metadata) error
	Get(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// New builds the store selected by the configuration.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "fs", "":
		return NewFS(cfg.Bucket)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Key builds the deterministic storage key for a document:
// {prefix}/{section}/{filename}. The caller passes already-sanitized
// segments; the same inputs always derive the same key.
func Key(prefix, section, filename string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, section, filename)
}

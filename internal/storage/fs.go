package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/policydocs/harvester/pkg/errors"
)

// metaSuffix marks the JSON sidecar file carrying an object's metadata.
const metaSuffix = ".meta.json"

// FS is a filesystem-backed object store. The bucket is a root directory and
// keys map to file paths beneath it. Writes go to a temp file followed by a
// rename, so concurrent writers to the same key observe one full object or
// the other, never a partial write.
type FS struct {
	root string
}

// NewFS creates the bucket directory if needed.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating bucket root %s: %w", root, err)
	}
	return &FS{root: root}, nil
}

func (s *FS) Put(ctx context.Context, key string, body []byte, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s: %v", key, err)
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s: %v", key, err)
	}

	if err := writeAtomic(path, body); err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s: %v", key, err)
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s metadata: %v", key, err)
	}
	if err := writeAtomic(path+metaSuffix, metaBytes); err != nil {
		return apperrors.Newf(apperrors.ErrStorageWriteFailed, 500, "put %s metadata: %v", key, err)
	}
	return nil
}

func (s *FS) Get(ctx context.Context, key string) (*Object, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "object %s", key)
		}
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	obj := &Object{Key: key, Body: body}
	if metaBytes, err := os.ReadFile(path + metaSuffix); err == nil {
		// A missing or corrupt sidecar degrades to empty metadata.
		_ = json.Unmarshal(metaBytes, &obj.Metadata)
	}
	return obj, nil
}

func (s *FS) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing prefix %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// path maps a key to a file path, rejecting traversal outside the bucket.
func (s *FS) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, 400, "invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

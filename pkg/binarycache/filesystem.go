package binarycache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glorpus-work/portman/pkg/errors"
)

// FilesystemCache stores package archives under a local directory, sharded by
// the first two characters of the key.
type FilesystemCache struct {
	root string
}

// NewFilesystemCache creates a cache rooted at dir.
func NewFilesystemCache(dir string) (*FilesystemCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("binary cache directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve binary cache directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create binary cache directory: %w", err)
	}
	return &FilesystemCache{root: abs}, nil
}

func (c *FilesystemCache) archivePath(key string) string {
	shard := key
	if len(key) > 2 {
		shard = key[:2]
	}
	return filepath.Join(c.root, shard, key+".tar.zst")
}

// Contains reports whether an archive for key exists on disk.
func (c *FilesystemCache) Contains(_ context.Context, key string) bool {
	_, err := os.Stat(c.archivePath(key))
	return err == nil
}

// Fetch extracts the cached archive for key into destDir.
func (c *FilesystemCache) Fetch(ctx context.Context, key, destDir string) error {
	path := c.archivePath(key)
	if _, err := os.Stat(path); err != nil {
		return errMiss(key)
	}
	if err := unpackTree(ctx, path, destDir); err != nil {
		return errors.Wrapf(errors.ErrCacheRestore, "%s: %v", key, err)
	}
	return nil
}

// Store packs the tree at srcDir into the cache under key. Stores are
// best-effort overwrites; a concurrent writer of the same key produces the
// same bytes.
func (c *FilesystemCache) Store(ctx context.Context, key, srcDir string) error {
	if err := packTree(ctx, srcDir, c.archivePath(key)); err != nil {
		return errors.Wrapf(errors.ErrCacheStore, "%s: %v", key, err)
	}
	return nil
}

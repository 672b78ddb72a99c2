// Copyright 2025 Gosayram Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileExt = ".json"

// FileBackend stores every key as a JSON file below a base directory.
// Intended for development and for inspecting reports by hand.
type FileBackend struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileBackend creates a new file-based storage backend
func NewFileBackend(basePath string) (*FileBackend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("file storage path is required")
	}
	if err := os.MkdirAll(basePath, defaultDirMode); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &FileBackend{basePath: basePath}, nil
}

// Get retrieves a value by key
func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	path, err := f.keyToPath(key)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	//nolint:gosec // path is confined to basePath by keyToPath
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// Put stores a value with the given key
func (f *FileBackend) Put(_ context.Context, key string, value []byte) error {
	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first so readers never see a partial report
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, defaultFileMode); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Delete removes a key-value pair
func (f *FileBackend) Delete(_ context.Context, key string) error {
	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// List returns all keys with the given prefix
func (f *FileBackend) List(ctx context.Context, prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var keys []string
	err := filepath.WalkDir(f.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(path, fileExt) {
			return nil
		}

		rel, err := filepath.Rel(f.basePath, path)
		if err != nil {
			return err
		}
		if key := pathToKey(rel); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Close closes the backend
func (f *FileBackend) Close() error {
	return nil
}

// Ping checks if the backend is available
func (f *FileBackend) Ping(_ context.Context) error {
	info, err := os.Stat(f.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", f.basePath)
	}
	return nil
}

// keyToPath maps a slash separated key to a file below basePath
func (f *FileBackend) keyToPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("%w: %q escapes the storage directory", ErrInvalidKey, key)
	}
	return filepath.Join(f.basePath, filepath.FromSlash(key)+fileExt), nil
}

func pathToKey(rel string) string {
	return strings.TrimSuffix(filepath.ToSlash(rel), fileExt)
}

// Package fs implements a filesystem-backed document store.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lodgecore/internal/blob/core"
)

const metaSuffix = ".meta"

// Store implements core.Store rooted at a directory. Each document is a
// content file plus a JSON metadata sidecar.
type Store struct {
	root string
}

var _ core.Store = (*Store)(nil)

// New creates the root directory if needed and returns a store over it.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("fs document store requires a root directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Driver returns the backend identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

type sidecar struct {
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Put writes a new document atomically; it fails if the key exists.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	path, err := s.resolve(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(path); err == nil {
		return core.Info{}, fmt.Errorf("document %s already exists", key)
	} else if !os.IsNotExist(err) {
		return core.Info{}, fmt.Errorf("stat document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return core.Info{}, fmt.Errorf("create document dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return core.Info{}, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return core.Info{}, fmt.Errorf("write document: %w", err)
	}
	meta := sidecar{
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		os.Remove(tmp.Name())
		return core.Info{}, fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(path+metaSuffix, raw, 0o644); err != nil {
		os.Remove(tmp.Name())
		return core.Info{}, fmt.Errorf("write metadata: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		os.Remove(path + metaSuffix)
		return core.Info{}, fmt.Errorf("commit document: %w", err)
	}
	return core.Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		Metadata:     opts.Metadata,
		LastModified: meta.LastModified,
	}, nil
}

// Get opens the document for reading along with its stored metadata.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := s.stat(key, path)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("open document: %w", err)
	}
	return info, f, nil
}

// Delete removes the document and its sidecar, returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove document: %w", err)
	}
	if err := os.Remove(path + metaSuffix); err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("remove metadata: %w", err)
	}
	return true, nil
}

// List walks the root and returns documents matching the prefix, key ascending.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
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
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := s.stat(key, path)
		if err != nil {
			return err
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL is not available for the filesystem backend.
func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

func (s *Store) stat(key, path string) (core.Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Info{}, fmt.Errorf("document %s not found", key)
		}
		return core.Info{}, fmt.Errorf("stat document: %w", err)
	}
	info := core.Info{Key: key, Size: fi.Size(), LastModified: fi.ModTime().UTC()}
	raw, err := os.ReadFile(path + metaSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return info, nil
		}
		return core.Info{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta sidecar
	if err := json.Unmarshal(raw, &meta); err != nil {
		return core.Info{}, fmt.Errorf("decode metadata: %w", err)
	}
	info.ContentType = meta.ContentType
	info.Metadata = meta.Metadata
	if !meta.LastModified.IsZero() {
		info.LastModified = meta.LastModified
	}
	return info, nil
}

// resolve maps a key to a path under root, rejecting traversal attempts.
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("document key must not be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

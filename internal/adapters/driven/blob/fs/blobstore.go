// Package fs implements the blob store on the local filesystem. Objects
// live under a root directory and are addressed with file:// URLs.
package fs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cargolens/cargolens-cli/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore stores blobs as plain files under a root directory.
type BlobStore struct {
	root string
}

// NewBlobStore creates a store rooted at dir, creating it if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving blob directory: %w", err)
	}
	return &BlobStore{root: abs}, nil
}

// Put stores the reader's contents under name and returns a file:// URL.
func (b *BlobStore) Put(ctx context.Context, r io.Reader, name string) (string, error) {
	path, err := b.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("creating blob subdirectory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating blob: %w", err)
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("placing blob: %w", err)
	}

	return b.urlFor(path), nil
}

// Get fetches a blob's contents by its URL.
func (b *BlobStore) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "file" {
		return nil, fmt.Errorf("unsupported blob url %q", rawURL)
	}

	path := filepath.FromSlash(u.Path)
	if !strings.HasPrefix(path, b.root+string(filepath.Separator)) {
		return nil, fmt.Errorf("blob url %q outside store", rawURL)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// List enumerates blobs whose names start with prefix.
func (b *BlobStore) List(ctx context.Context, prefix string) ([]driven.BlobInfo, error) {
	var infos []driven.BlobInfo

	err := filepath.WalkDir(b.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if !strings.HasPrefix(name, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		infos = append(infos, driven.BlobInfo{
			Name: name,
			Size: info.Size(),
			URL:  b.urlFor(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing blobs: %w", err)
	}
	return infos, nil
}

// resolve maps an object name to a path inside the root, rejecting
// traversal outside it.
func (b *BlobStore) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *BlobStore) urlFor(path string) string {
	return "file://" + filepath.ToSlash(path)
}

package source

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Filesystem reads documents from local paths. Keys are paths; List walks a
// directory for *.json files.
type Filesystem struct{}

// NewFilesystem creates a filesystem store.
func NewFilesystem() *Filesystem { return &Filesystem{} }

func (f *Filesystem) Driver() Driver { return DriverFilesystem }

func (f *Filesystem) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if key == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(key)
}

func (f *Filesystem) List(_ context.Context, prefix string) ([]string, error) {
	root := prefix
	if root == "" {
		root = "."
	}
	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		keys = append(keys, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

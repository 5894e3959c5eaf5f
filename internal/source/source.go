// Package source locates and opens acquisition metadata documents on the
// local filesystem or in an S3-compatible bucket.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"wellmap/internal/acquisition"
)

// Driver names a document backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// Store reads metadata documents by key.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the document keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Ref is a parsed document reference: a local path, or s3://bucket/key.
type Ref struct {
	Driver Driver
	Bucket string
	Key    string
}

func (r Ref) String() string {
	if r.Driver == DriverS3 {
		return "s3://" + r.Bucket + "/" + r.Key
	}
	return r.Key
}

// ParseRef parses a command-line document reference.
func ParseRef(s string) (Ref, error) {
	if rest, ok := strings.CutPrefix(s, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Ref{}, fmt.Errorf("s3 reference %q has no bucket", s)
		}
		return Ref{Driver: DriverS3, Bucket: bucket, Key: key}, nil
	}
	if s == "" {
		return Ref{}, fmt.Errorf("empty document reference")
	}
	return Ref{Driver: DriverFilesystem, Key: s}, nil
}

// IsPrefix reports whether the reference names a directory or key prefix
// rather than a single document.
func (r Ref) IsPrefix() bool {
	return r.Key == "" || strings.HasSuffix(r.Key, "/")
}

// Load reads and decodes one document.
func Load(ctx context.Context, st Store, key string) (*acquisition.Document, error) {
	rc, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()

	doc, err := acquisition.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if doc.Source == "" {
		doc.Source = key
	}
	return doc, nil
}

// Open returns the store that serves ref. For S3 references the bucket comes
// from ref; the remaining settings from cfg.
func Open(ctx context.Context, ref Ref, cfg S3Config) (Store, error) {
	switch ref.Driver {
	case DriverFilesystem:
		return NewFilesystem(), nil
	case DriverS3:
		cfg.Bucket = ref.Bucket
		st, err := NewS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown source driver %s", ref.Driver)
	}
}

// Expand resolves ref to the document keys it names: the key itself, or
// every document under a prefix.
func Expand(ctx context.Context, st Store, ref Ref) ([]string, error) {
	if ref.Driver == DriverFilesystem && ref.Key != "-" {
		if info, err := os.Stat(ref.Key); err == nil && info.IsDir() {
			return st.List(ctx, ref.Key)
		}
	}
	if ref.Driver == DriverS3 && ref.IsPrefix() {
		return st.List(ctx, ref.Key)
	}
	return []string{ref.Key}, nil
}

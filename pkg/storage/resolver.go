package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// MaxDocumentSize bounds ReadAll
const MaxDocumentSize = 64 << 20

// Resolver picks a Storage backend for each URI by scheme. Bare paths go
// to the file backend. The S3 backend is created on first use so that
// missing AWS credentials only matter to callers that touch s3://.
type Resolver struct {
	mu       sync.Mutex
	backends map[string]Storage
	s3Config S3Config
	s3Err    error
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithBackend serves scheme with st
func WithBackend(scheme string, st Storage) ResolverOption {
	return func(r *Resolver) {
		r.backends[scheme] = st
	}
}

// WithS3Config sets the settings for the lazily created S3 backend
func WithS3Config(cfg S3Config) ResolverOption {
	return func(r *Resolver) {
		r.s3Config = cfg
	}
}

// WithHTTPClient sets the client used for http and https
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(r *Resolver) {
		hs := NewHTTPStorage(client)
		r.backends["http"] = hs
		r.backends["https"] = hs
	}
}

// NewResolver creates a resolver for file, http, https and s3
func NewResolver(opts ...ResolverOption) *Resolver {
	hs := NewHTTPStorage(nil)
	r := &Resolver{
		backends: map[string]Storage{
			"file":  NewLocalStorage(),
			"http":  hs,
			"https": hs,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For returns the backend serving uri
func (r *Resolver) For(ctx context.Context, uri string) (Storage, error) {
	uri, err := Normalize(uri)
	if err != nil {
		return nil, err
	}
	scheme, _, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.backends[scheme]; ok {
		return st, nil
	}
	if scheme != "s3" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	if r.s3Err != nil {
		return nil, r.s3Err
	}

	st, err := NewS3Storage(ctx, r.s3Config)
	if err != nil {
		r.s3Err = fmt.Errorf("S3 storage not initialized: %w", err)
		return nil, r.s3Err
	}
	r.backends["s3"] = st
	return st, nil
}

// ReadAll reads a whole document
func (r *Resolver) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	st, err := r.For(ctx, uri)
	if err != nil {
		return nil, err
	}

	rc, err := st.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("document %s exceeds %d bytes", uri, MaxDocumentSize)
	}
	return data, nil
}

// WriteAll stores data as a document
func (r *Resolver) WriteAll(ctx context.Context, uri string, data []byte) error {
	st, err := r.For(ctx, uri)
	if err != nil {
		return err
	}
	return st.Put(ctx, uri, bytes.NewReader(data))
}

// Fetch makes uri available as a local file. file:// URIs and bare paths
// are returned as-is; remote objects are downloaded into dir.
func (r *Resolver) Fetch(ctx context.Context, uri, dir string) (string, error) {
	normalized, err := Normalize(uri)
	if err != nil {
		return "", err
	}
	scheme, p, err := ParseURI(normalized)
	if err != nil {
		return "", err
	}
	if scheme == "file" {
		return filepath.FromSlash(p), nil
	}

	st, err := r.For(ctx, uri)
	if err != nil {
		return "", err
	}
	rc, err := st.Get(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	defer rc.Close()

	name := path.Base(p)
	if name == "" || name == "." || name == "/" {
		name = "input"
	}
	f, err := os.CreateTemp(dir, "*-"+name)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

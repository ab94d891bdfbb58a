package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// AllowedSchemes is the whitelist of locator schemes accepted for graph
// inputs and outputs. Only some of them have a Storage backend.
var AllowedSchemes = []string{"https", "http", "s3", "gs", "azure", "file"}

var (
	// ErrNotFound is returned when a document does not exist
	ErrNotFound = errors.New("document not found")
	// ErrReadOnly is returned by backends that cannot write
	ErrReadOnly = errors.New("storage backend is read-only")
	// ErrUnsupportedScheme is returned when no backend serves a scheme
	ErrUnsupportedScheme = errors.New("unsupported URI scheme")
)

// Storage reads and writes documents (serialized graphs, job specs,
// catalogues) addressed by URI
type Storage interface {
	// Get opens the document at uri
	Get(ctx context.Context, uri string) (io.ReadCloser, error)

	// Put writes data to uri, replacing any existing document
	Put(ctx context.Context, uri string, data io.Reader) error

	// Delete removes the document at uri. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, uri string) error

	// Exists reports whether a document exists at uri
	Exists(ctx context.Context, uri string) (bool, error)
}

// ParseURI parses a URI and returns scheme and path. For file:// the path
// is the file path; for everything else it is host followed by path.
func ParseURI(uri string) (scheme string, path string, err error) {
	if uri == "" {
		return "", "", fmt.Errorf("URI cannot be empty")
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid URI: %w", err)
	}

	if parsed.Scheme == "" {
		return "", "", fmt.Errorf("URI must have a scheme (e.g., https://, s3://)")
	}

	scheme = strings.ToLower(parsed.Scheme)
	if scheme == "file" {
		return scheme, parsed.Path, nil
	}

	path = parsed.Host
	if parsed.Path != "" {
		path = path + parsed.Path
	}
	return scheme, path, nil
}

// Normalize turns a bare file path into a file:// URI. Anything that
// already has a scheme is returned unchanged.
func Normalize(locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("URI cannot be empty")
	}
	if hasScheme(locator) {
		return locator, nil
	}

	abs, err := filepath.Abs(locator)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", locator, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// hasScheme reports whether locator starts with a URI scheme. Single
// letters are Windows drive names, not schemes.
func hasScheme(locator string) bool {
	i := strings.Index(locator, ":")
	if i < 2 {
		return false
	}
	for j, r := range locator[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// IsAllowedScheme checks if a URI scheme is in the whitelist
func IsAllowedScheme(scheme string) bool {
	for _, allowed := range AllowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

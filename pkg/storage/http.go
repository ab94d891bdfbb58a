package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPStorage fetches documents over HTTP/HTTPS. It is read-only.
type HTTPStorage struct {
	client *http.Client
}

// NewHTTPStorage creates a new HTTP storage backend. A nil client means
// http.DefaultClient.
func NewHTTPStorage(client *http.Client) *HTTPStorage {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStorage{client: client}
}

func checkHTTP(uri string) error {
	scheme, _, err := ParseURI(uri)
	if err != nil {
		return err
	}
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("HTTP storage only supports http:// and https:// URIs, got %s://", scheme)
	}
	return nil
}

// Get downloads a document
func (hs *HTTPStorage) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := checkHTTP(uri); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound, http.StatusGone:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s (HTTP %d)", ErrNotFound, uri, resp.StatusCode)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request failed with status %d", resp.StatusCode)
	}
}

// Put is not supported
func (hs *HTTPStorage) Put(ctx context.Context, uri string, data io.Reader) error {
	return fmt.Errorf("put %s: %w", uri, ErrReadOnly)
}

// Delete is not supported
func (hs *HTTPStorage) Delete(ctx context.Context, uri string) error {
	return fmt.Errorf("delete %s: %w", uri, ErrReadOnly)
}

// Exists sends a HEAD request
func (hs *HTTPStorage) Exists(ctx context.Context, uri string) (bool, error) {
	if err := checkHTTP(uri); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

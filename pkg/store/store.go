// Package store keeps saved stream graphs and the commands compiled from them
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrGraphNotFound is returned when a graph does not exist
	ErrGraphNotFound = errors.New("graph not found")

	// ErrGraphExists is returned when creating a graph whose ID is taken
	ErrGraphExists = errors.New("graph already exists")

	// ErrInvalidID is returned for empty or malformed IDs
	ErrInvalidID = errors.New("invalid graph ID")
)

// Store persists graph records
type Store interface {
	// Create stores a new record. An empty ID is filled in.
	Create(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID
	Get(ctx context.Context, id string) (*Record, error)

	// Update replaces an existing record
	Update(ctx context.Context, rec *Record) error

	// Delete removes a record by ID
	Delete(ctx context.Context, id string) error

	// List returns records matching filter
	List(ctx context.Context, filter *ListFilter) ([]*Record, error)

	// SetCommand records the latest compiled command of a graph
	SetCommand(ctx context.Context, id string, args []string) error

	// Close releases resources
	Close() error
}

// Record is a saved graph document
type Record struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	Created time.Time `json:"created_at"`
	Updated time.Time `json:"updated_at"`

	// Document is the serialized graph
	Document json.RawMessage `json:"document"`
	// Hash is the hex structural hash of the graph's root
	Hash string `json:"hash"`
	// Nodes is the number of distinct nodes in the graph
	Nodes int `json:"nodes"`

	// Command is the last argument vector compiled from the graph
	Command    []string   `json:"command,omitempty"`
	CompiledAt *time.Time `json:"compiled_at,omitempty"`

	Tags map[string]string `json:"tags,omitempty"`
}

// IsCompiled reports whether a command has been recorded
func (r *Record) IsCompiled() bool {
	return r.CompiledAt != nil
}

// ListFilter defines filtering criteria for listing records
type ListFilter struct {
	// NamePrefix keeps records whose name starts with it
	NamePrefix string `json:"name_prefix,omitempty"`

	// Hash keeps records of one graph
	Hash string `json:"hash,omitempty"`

	// Tags must all match
	Tags map[string]string `json:"tags,omitempty"`

	// Time range filters
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max results (0 = no limit)
	Offset int `json:"offset,omitempty"` // Skip N results

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // created, updated or name
	SortOrder string `json:"sort_order,omitempty"` // "asc" or "desc"
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
)

// MemoryStore is an in-memory implementation of Store
// Thread-safe for concurrent access
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Create stores a new record, assigning an xid when ID is empty
func (m *MemoryStore) Create(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrInvalidID
	}
	if rec.ID == "" {
		rec.ID = xid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; exists {
		return ErrGraphExists
	}

	now := m.now()
	if rec.Created.IsZero() {
		rec.Created = now
	}
	if rec.Updated.IsZero() {
		rec.Updated = rec.Created
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

// Get retrieves a record by ID
func (m *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[id]
	if !exists {
		return nil, ErrGraphNotFound
	}
	return copyRecord(rec), nil
}

// Update replaces an existing record
func (m *MemoryStore) Update(ctx context.Context, rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, exists := m.records[rec.ID]
	if !exists {
		return ErrGraphNotFound
	}

	rec.Created = old.Created
	rec.Updated = m.now()
	if rec.Hash != old.Hash {
		// a different graph invalidates the compiled command
		rec.Command = nil
		rec.CompiledAt = nil
	}
	m.records[rec.ID] = copyRecord(rec)
	return nil
}

// Delete removes a record by ID
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[id]; !exists {
		return ErrGraphNotFound
	}
	delete(m.records, id)
	return nil
}

// List returns matching records, newest first unless filter says otherwise
func (m *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []*Record{}
	for _, rec := range m.records {
		if matchesFilter(rec, filter) {
			records = append(records, copyRecord(rec))
		}
	}

	sortRecords(records, filter)
	return paginate(records, filter), nil
}

// SetCommand records the latest compiled command of a graph
func (m *MemoryStore) SetCommand(ctx context.Context, id string, args []string) error {
	if id == "" {
		return ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.records[id]
	if !exists {
		return ErrGraphNotFound
	}

	now := m.now()
	rec.Command = append([]string(nil), args...)
	rec.CompiledAt = &now
	rec.Updated = now
	return nil
}

// Close closes the store (no-op for memory store)
func (m *MemoryStore) Close() error {
	return nil
}

func copyRecord(rec *Record) *Record {
	if rec == nil {
		return nil
	}

	c := *rec
	c.Document = append([]byte(nil), rec.Document...)
	c.Command = append([]string(nil), rec.Command...)
	if len(rec.Command) == 0 {
		c.Command = nil
	}
	if rec.CompiledAt != nil {
		t := *rec.CompiledAt
		c.CompiledAt = &t
	}
	if rec.Tags != nil {
		c.Tags = make(map[string]string, len(rec.Tags))
		for k, v := range rec.Tags {
			c.Tags[k] = v
		}
	}
	return &c
}

func matchesFilter(rec *Record, filter *ListFilter) bool {
	if filter == nil {
		return true
	}

	if filter.NamePrefix != "" && !strings.HasPrefix(rec.Name, filter.NamePrefix) {
		return false
	}
	if filter.Hash != "" && rec.Hash != filter.Hash {
		return false
	}
	for k, v := range filter.Tags {
		if rec.Tags[k] != v {
			return false
		}
	}

	if filter.CreatedAfter != nil && rec.Created.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && rec.Created.After(*filter.CreatedBefore) {
		return false
	}
	return true
}

func sortRecords(records []*Record, filter *ListFilter) {
	by, descending := "created", true
	if filter != nil && filter.SortBy != "" {
		by = filter.SortBy
		descending = filter.SortOrder == "desc"
	}

	less := func(a, b *Record) bool {
		switch by {
		case "updated":
			if !a.Updated.Equal(b.Updated) {
				return a.Updated.Before(b.Updated)
			}
		case "name":
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		default:
			if !a.Created.Equal(b.Created) {
				return a.Created.Before(b.Created)
			}
		}
		// xids sort by creation time, which keeps ties stable
		return a.ID < b.ID
	}

	sort.Slice(records, func(i, j int) bool {
		if descending {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func paginate(records []*Record, filter *ListFilter) []*Record {
	if filter == nil {
		return records
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return []*Record{}
		}
		records = records[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records
}

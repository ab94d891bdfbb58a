package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// KeyPrefix starts every generated API key
const KeyPrefix = "ffg_"

var (
	// ErrInvalidAPIKey is returned for unknown keys
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrAPIKeyRevoked is returned for revoked keys
	ErrAPIKeyRevoked = errors.New("API key has been revoked")
	// ErrAPIKeyExpired is returned for expired keys
	ErrAPIKeyExpired = errors.New("API key has expired")
	// ErrAPIKeyNotFound is returned when revoking or deleting an unknown key
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// APIKey describes an API key. The secret itself is only returned once,
// by Generate; the manager keeps its SHA-256 digest.
type APIKey struct {
	ID        string     `json:"id"`
	Key       string     `json:"key,omitempty"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Revoked   bool       `json:"revoked"`
}

// APIKeyManager manages API keys
type APIKeyManager struct {
	mu   sync.RWMutex
	keys map[string]*APIKey // digest -> key
	now  func() time.Time
}

// NewAPIKeyManager creates a new API key manager
func NewAPIKeyManager() *APIKeyManager {
	return &APIKeyManager{
		keys: make(map[string]*APIKey),
		now:  time.Now,
	}
}

func digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Generate creates a new random API key
func (m *APIKeyManager) Generate(userID, name, role string, expiresAt *time.Time) (*APIKey, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	key := KeyPrefix + base64.RawURLEncoding.EncodeToString(keyBytes)

	apiKey, err := m.Add(key, userID, name, role, expiresAt)
	if err != nil {
		return nil, err
	}
	apiKey.Key = key
	return apiKey, nil
}

// Add registers a key chosen by the caller, e.g. one read from config
func (m *APIKeyManager) Add(key, userID, name, role string, expiresAt *time.Time) (*APIKey, error) {
	if key == "" || userID == "" {
		return nil, errors.New("key and user ID are required")
	}

	d := digest(key)
	apiKey := &APIKey{
		ID:        d[:12],
		UserID:    userID,
		Name:      name,
		Role:      role,
		CreatedAt: m.now(),
		ExpiresAt: expiresAt,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[d]; exists {
		return nil, errors.New("API key already registered")
	}
	m.keys[d] = apiKey

	c := *apiKey
	return &c, nil
}

// Verify checks if an API key is valid
func (m *APIKeyManager) Verify(key string) (*APIKey, error) {
	m.mu.RLock()
	apiKey, exists := m.keys[digest(key)]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrInvalidAPIKey
	}
	if apiKey.Revoked {
		return nil, ErrAPIKeyRevoked
	}
	if apiKey.ExpiresAt != nil && m.now().After(*apiKey.ExpiresAt) {
		return nil, ErrAPIKeyExpired
	}

	c := *apiKey
	return &c, nil
}

// Revoke marks the key with the given ID as revoked
func (m *APIKeyManager) Revoke(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, apiKey := range m.keys {
		if apiKey.ID == id {
			apiKey.Revoked = true
			return nil
		}
	}
	return ErrAPIKeyNotFound
}

// Delete removes the key with the given ID
func (m *APIKeyManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for d, apiKey := range m.keys {
		if apiKey.ID == id {
			delete(m.keys, d)
			return nil
		}
	}
	return ErrAPIKeyNotFound
}

// List returns all API keys of a user, oldest first
func (m *APIKeyManager) List(userID string) []*APIKey {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []*APIKey
	for _, apiKey := range m.keys {
		if apiKey.UserID == userID {
			c := *apiKey
			keys = append(keys, &c)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].CreatedAt.Before(keys[j].CreatedAt)
	})
	return keys
}

// Count returns the number of keys that are not revoked
func (m *APIKeyManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, apiKey := range m.keys {
		if !apiKey.Revoked {
			count++
		}
	}
	return count
}

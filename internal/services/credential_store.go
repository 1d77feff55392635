package services

import "sync"

// Session-scoped credential keys
const (
	KeyMerchantID     = "merchantId"
	KeyClientID       = "clientId"
	KeyMerchantAPIKey = "merchantApiKey"
)

// CredentialStore holds the session-scoped merchant identity and API key.
// Writes are last-writer-wins and visible to the next read.
type CredentialStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	// SetAll writes every entry in one step; readers never see a partial write.
	SetAll(values map[string]string)
	Delete(key string)
	Clear()
}

// MemoryCredentialStore is a CredentialStore kept in process memory for one browser session
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryCredentialStore creates an empty store
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{values: make(map[string]string)}
}

func (s *MemoryCredentialStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value; an empty value deletes the key so that blanks are never cached.
func (s *MemoryCredentialStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.values, key)
		return
	}
	s.values[key] = value
}

func (s *MemoryCredentialStore) SetAll(values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		if v == "" {
			continue
		}
		s.values[k] = v
	}
}

func (s *MemoryCredentialStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *MemoryCredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
}

// Snapshot returns a copy of every entry.
func (s *MemoryCredentialStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// discardStore drops every write. Used where a price fetch must not capture merchant identity.
type discardStore struct{}

func (discardStore) Get(string) (string, bool) { return "", false }
func (discardStore) Set(string, string)        {}
func (discardStore) SetAll(map[string]string)  {}
func (discardStore) Delete(string)             {}
func (discardStore) Clear()                    {}

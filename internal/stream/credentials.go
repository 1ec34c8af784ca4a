package stream

import (
	"strings"
	"sync"
)

// DefaultEndpoint is the broadcast-provider ingest URL used when neither a
// per-tenant endpoint nor a process-wide default is configured.
const DefaultEndpoint = "rtmp://a.rtmp.youtube.com/live2/"

// CredentialsStore holds per-tenant stream key and ingest endpoint
// overrides, falling back to process-wide defaults sourced from
// configuration at resolve time.
type CredentialsStore struct {
	mu        sync.RWMutex
	keys      map[TenantID]string
	endpoints map[TenantID]string

	defaultKey      string
	defaultEndpoint string
}

// NewCredentialsStore returns a store with the given process-wide defaults.
// Either default may be empty; ResolveEndpoint then falls back to
// DefaultEndpoint, and ResolveKey to the empty string.
func NewCredentialsStore(defaultKey, defaultEndpoint string) *CredentialsStore {
	return &CredentialsStore{
		keys:            make(map[TenantID]string),
		endpoints:       make(map[TenantID]string),
		defaultKey:      defaultKey,
		defaultEndpoint: defaultEndpoint,
	}
}

// SetKey records a per-tenant stream key override.
func (s *CredentialsStore) SetKey(tenant TenantID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[tenant] = key
}

// SetEndpoint records a per-tenant ingest endpoint override.
func (s *CredentialsStore) SetEndpoint(tenant TenantID, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[tenant] = url
}

// ResetEndpoint removes the tenant's endpoint override so resolution falls
// back to the defaults again.
func (s *CredentialsStore) ResetEndpoint(tenant TenantID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, tenant)
}

// ResolveKey returns the tenant's stream key, the process-wide default, or
// "" when neither exists. A session cannot start on an empty key.
func (s *CredentialsStore) ResolveKey(tenant TenantID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if key, ok := s.keys[tenant]; ok && key != "" {
		return key
	}
	return s.defaultKey
}

// ResolveEndpoint returns the tenant's ingest endpoint, the process-wide
// default, or DefaultEndpoint.
func (s *CredentialsStore) ResolveEndpoint(tenant TenantID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if url, ok := s.endpoints[tenant]; ok && url != "" {
		return url
	}
	if s.defaultEndpoint != "" {
		return s.defaultEndpoint
	}
	return DefaultEndpoint
}

// MaskKey formats a stream key for status surfaces: keys longer than eight
// characters show their first and last four characters around a fixed mask,
// shorter keys are fully masked. Formatting only, not a security boundary.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) > 8 {
		return key[:4] + "****" + key[len(key)-4:]
	}
	return strings.Repeat("*", 8)
}

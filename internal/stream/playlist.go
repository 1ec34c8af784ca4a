package stream

import "sync"

// PlaylistStore is a concurrency-safe in-memory store of per-tenant
// playlists. Each playlist is an ordered list of absolute local media file
// paths (insertion order is streaming order) plus the currently selected
// index. The index is kept inside [0, len) whenever files are removed.
type PlaylistStore struct {
	mu        sync.RWMutex
	playlists map[TenantID]*playlist
}

type playlist struct {
	files   []string
	current int
}

// NewPlaylistStore returns a new empty playlist store.
func NewPlaylistStore() *PlaylistStore {
	return &PlaylistStore{playlists: make(map[TenantID]*playlist)}
}

// AddFile appends path to the tenant's playlist. Re-adding a path that is
// already present is a no-op; paths are unique within a playlist.
func (s *PlaylistStore) AddFile(tenant TenantID, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl := s.getOrCreateLocked(tenant)
	for _, existing := range pl.files {
		if existing == path {
			return
		}
	}
	pl.files = append(pl.files, path)
}

// Files returns an ordered copy of the tenant's playlist. Unknown tenants
// yield an empty slice.
func (s *PlaylistStore) Files(tenant TenantID) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pl, ok := s.playlists[tenant]
	if !ok || len(pl.files) == 0 {
		return nil
	}
	out := make([]string, len(pl.files))
	copy(out, pl.files)
	return out
}

// Count returns the number of files in the tenant's playlist.
func (s *PlaylistStore) Count(tenant TenantID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pl, ok := s.playlists[tenant]
	if !ok {
		return 0
	}
	return len(pl.files)
}

// RemoveFile removes the entry at index and returns its path.
// It fails with ErrIndexOutOfRange unless 0 <= index < len. The current
// index is shifted or clamped so it keeps addressing a valid entry.
func (s *PlaylistStore) RemoveFile(tenant TenantID, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.playlists[tenant]
	if !ok || index < 0 || index >= len(pl.files) {
		return "", ErrIndexOutOfRange
	}

	removed := pl.files[index]
	pl.files = append(pl.files[:index], pl.files[index+1:]...)

	if index < pl.current {
		pl.current--
	}
	pl.current = clampIndex(pl.current, len(pl.files))
	return removed, nil
}

// SetCurrentIndex records the tenant's selected file index, clamped to
// [0, len). Setting an index on an unknown or empty playlist is a no-op.
func (s *PlaylistStore) SetCurrentIndex(tenant TenantID, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pl, ok := s.playlists[tenant]
	if !ok {
		return
	}
	pl.current = clampIndex(index, len(pl.files))
}

// CurrentIndex returns the tenant's selected file index, or 0 for an
// unknown or empty playlist.
func (s *PlaylistStore) CurrentIndex(tenant TenantID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pl, ok := s.playlists[tenant]
	if !ok {
		return 0
	}
	return clampIndex(pl.current, len(pl.files))
}

// getOrCreateLocked returns an existing playlist or creates a new one.
// Caller must hold s.mu in write mode.
func (s *PlaylistStore) getOrCreateLocked(tenant TenantID) *playlist {
	if pl, ok := s.playlists[tenant]; ok {
		return pl
	}
	pl := &playlist{}
	s.playlists[tenant] = pl
	return pl
}

func clampIndex(index, length int) int {
	if length == 0 || index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}

package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestStore writes the concat manifests the external encoder consumes:
// one `file '<path>'` line per playlist entry, at a per-tenant scratch
// location. A fresh manifest overwrites any stale one from a previous
// session for the same tenant.
type ManifestStore struct {
	dir string
}

// NewManifestStore returns a store writing manifests under dir, or the
// system temp directory when dir is empty.
func NewManifestStore(dir string) *ManifestStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &ManifestStore{dir: dir}
}

// Path returns the tenant's manifest location.
func (m *ManifestStore) Path(tenant TenantID) string {
	return filepath.Join(m.dir, fmt.Sprintf("concat_%d.txt", tenant))
}

// Write serializes files in order to the tenant's manifest, replacing any
// previous contents, and returns the manifest path.
func (m *ManifestStore) Write(tenant TenantID, files []string) (string, error) {
	var b strings.Builder
	for _, path := range files {
		b.WriteString("file '")
		b.WriteString(escapeManifestPath(path))
		b.WriteString("'\n")
	}

	path := m.Path(tenant)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Remove deletes the tenant's manifest. A missing manifest is not an error.
func (m *ManifestStore) Remove(tenant TenantID) error {
	err := os.Remove(m.Path(tenant))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove manifest: %w", err)
	}
	return nil
}

// escapeManifestPath escapes embedded single quotes the way the concat
// demuxer expects: ' becomes '\''.
func escapeManifestPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

package stream

import (
	"os"
	"testing"
)

func TestManifestStore_Write(t *testing.T) {
	store := NewManifestStore(t.TempDir())

	path, err := store.Write(1, []string{"/media/a.mp4", "/media/b.mp4"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "file '/media/a.mp4'\nfile '/media/b.mp4'\n"
	if string(data) != want {
		t.Errorf("manifest=%q want %q", data, want)
	}
}

func TestManifestStore_Write_escapes_quotes(t *testing.T) {
	store := NewManifestStore(t.TempDir())

	path, err := store.Write(1, []string{"/media/it's a song.mp3"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := `file '/media/it'\''s a song.mp3'` + "\n"
	if string(data) != want {
		t.Errorf("manifest=%q want %q", data, want)
	}
}

func TestManifestStore_Write_overwrites_stale(t *testing.T) {
	store := NewManifestStore(t.TempDir())

	if _, err := store.Write(1, []string{"/media/old1.mp4", "/media/old2.mp4"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path, err := store.Write(1, []string{"/media/new.mp4"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "file '/media/new.mp4'\n" {
		t.Errorf("stale manifest survived overwrite: %q", data)
	}
}

func TestManifestStore_per_tenant_paths(t *testing.T) {
	store := NewManifestStore(t.TempDir())
	if store.Path(1) == store.Path(2) {
		t.Error("different tenants must not share a manifest path")
	}
}

func TestManifestStore_Remove_idempotent(t *testing.T) {
	store := NewManifestStore(t.TempDir())

	path, err := store.Write(1, []string{"/media/a.mp4"})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("manifest should be gone after Remove")
	}
	if err := store.Remove(1); err != nil {
		t.Errorf("Remove on missing manifest: %v", err)
	}
}

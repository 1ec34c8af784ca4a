package stream

import (
	"errors"
	"testing"
)

func TestPlaylistStore_AddFile_idempotent(t *testing.T) {
	store := NewPlaylistStore()

	store.AddFile(1, "/media/a.mp4")
	store.AddFile(1, "/media/a.mp4")

	files := store.Files(1)
	if len(files) != 1 {
		t.Errorf("re-adding the same path should not grow the playlist: len=%d", len(files))
	}
}

func TestPlaylistStore_Files_preserves_order(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")
	store.AddFile(1, "/media/b.mp4")
	store.AddFile(1, "/media/c.mp4")

	files := store.Files(1)
	want := []string{"/media/a.mp4", "/media/b.mp4", "/media/c.mp4"}
	if len(files) != len(want) {
		t.Fatalf("len=%d want %d", len(files), len(want))
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d]=%q want %q", i, files[i], want[i])
		}
	}
}

func TestPlaylistStore_Files_unknown_tenant(t *testing.T) {
	store := NewPlaylistStore()
	if files := store.Files(42); len(files) != 0 {
		t.Errorf("unknown tenant should have empty playlist, got %v", files)
	}
}

func TestPlaylistStore_Files_returns_copy(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")

	files := store.Files(1)
	files[0] = "/media/mutated.mp4"

	if got := store.Files(1)[0]; got != "/media/a.mp4" {
		t.Errorf("mutating the returned slice leaked into the store: %q", got)
	}
}

func TestPlaylistStore_RemoveFile(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")
	store.AddFile(1, "/media/b.mp4")

	removed, err := store.RemoveFile(1, 0)
	if err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if removed != "/media/a.mp4" {
		t.Errorf("removed=%q want /media/a.mp4", removed)
	}
	if files := store.Files(1); len(files) != 1 || files[0] != "/media/b.mp4" {
		t.Errorf("unexpected playlist after removal: %v", files)
	}
}

func TestPlaylistStore_RemoveFile_out_of_range(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")

	for _, index := range []int{-1, 1, 99} {
		if _, err := store.RemoveFile(1, index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveFile(%d): err=%v want ErrIndexOutOfRange", index, err)
		}
	}
	if _, err := store.RemoveFile(42, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("RemoveFile on unknown tenant: err=%v want ErrIndexOutOfRange", err)
	}
}

func TestPlaylistStore_RemoveFile_adjusts_current_index(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")
	store.AddFile(1, "/media/b.mp4")
	store.AddFile(1, "/media/c.mp4")
	store.SetCurrentIndex(1, 2)

	// Removing an entry before the current one shifts the index so it still
	// addresses c.mp4.
	if _, err := store.RemoveFile(1, 0); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if got := store.CurrentIndex(1); got != 1 {
		t.Errorf("CurrentIndex=%d want 1", got)
	}

	// Removing the tail clamps the index back into range.
	if _, err := store.RemoveFile(1, 1); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if got := store.CurrentIndex(1); got != 0 {
		t.Errorf("CurrentIndex=%d want 0", got)
	}
}

func TestPlaylistStore_SetCurrentIndex_clamps(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")
	store.AddFile(1, "/media/b.mp4")

	store.SetCurrentIndex(1, 99)
	if got := store.CurrentIndex(1); got != 1 {
		t.Errorf("CurrentIndex=%d want 1 (clamped to len-1)", got)
	}

	store.SetCurrentIndex(1, -3)
	if got := store.CurrentIndex(1); got != 0 {
		t.Errorf("CurrentIndex=%d want 0 (clamped to 0)", got)
	}
}

func TestPlaylistStore_CurrentIndex_empty_or_unknown(t *testing.T) {
	store := NewPlaylistStore()
	if got := store.CurrentIndex(42); got != 0 {
		t.Errorf("CurrentIndex on unknown tenant=%d want 0", got)
	}

	store.AddFile(1, "/media/a.mp4")
	if _, err := store.RemoveFile(1, 0); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if got := store.CurrentIndex(1); got != 0 {
		t.Errorf("CurrentIndex on emptied playlist=%d want 0", got)
	}
}

func TestPlaylistStore_tenants_are_independent(t *testing.T) {
	store := NewPlaylistStore()
	store.AddFile(1, "/media/a.mp4")
	store.AddFile(2, "/media/b.mp4")

	if files := store.Files(1); len(files) != 1 || files[0] != "/media/a.mp4" {
		t.Errorf("tenant 1 playlist: %v", files)
	}
	if files := store.Files(2); len(files) != 1 || files[0] != "/media/b.mp4" {
		t.Errorf("tenant 2 playlist: %v", files)
	}
}

package stream

import "testing"

func TestCredentialsStore_ResolveKey_fallback_chain(t *testing.T) {
	store := NewCredentialsStore("default-key", "")

	if got := store.ResolveKey(1); got != "default-key" {
		t.Errorf("ResolveKey without override=%q want default-key", got)
	}

	store.SetKey(1, "tenant-key")
	if got := store.ResolveKey(1); got != "tenant-key" {
		t.Errorf("ResolveKey with override=%q want tenant-key", got)
	}
	if got := store.ResolveKey(2); got != "default-key" {
		t.Errorf("ResolveKey for other tenant=%q want default-key", got)
	}
}

func TestCredentialsStore_ResolveKey_none(t *testing.T) {
	store := NewCredentialsStore("", "")
	if got := store.ResolveKey(1); got != "" {
		t.Errorf("ResolveKey with no key anywhere=%q want empty", got)
	}
}

func TestCredentialsStore_ResolveEndpoint_fallback_chain(t *testing.T) {
	store := NewCredentialsStore("", "")
	if got := store.ResolveEndpoint(1); got != DefaultEndpoint {
		t.Errorf("ResolveEndpoint=%q want hard-coded default", got)
	}

	store = NewCredentialsStore("", "rtmp://ingest.example.com/live/")
	if got := store.ResolveEndpoint(1); got != "rtmp://ingest.example.com/live/" {
		t.Errorf("ResolveEndpoint=%q want process-wide default", got)
	}

	store.SetEndpoint(1, "rtmp://other.example.com/app/")
	if got := store.ResolveEndpoint(1); got != "rtmp://other.example.com/app/" {
		t.Errorf("ResolveEndpoint=%q want tenant override", got)
	}
}

func TestCredentialsStore_ResetEndpoint(t *testing.T) {
	store := NewCredentialsStore("", "rtmp://ingest.example.com/live/")
	store.SetEndpoint(1, "rtmp://other.example.com/app/")
	store.ResetEndpoint(1)

	if got := store.ResolveEndpoint(1); got != "rtmp://ingest.example.com/live/" {
		t.Errorf("ResolveEndpoint after reset=%q want process-wide default", got)
	}

	// Resetting a tenant with no override is a no-op.
	store.ResetEndpoint(2)
}

func TestMaskKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"short", "********"},
		{"12345678", "********"},
		{"abcd-efgh-wxyz", "abcd****wxyz"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.key); got != tt.want {
			t.Errorf("MaskKey(%q)=%q want %q", tt.key, got, tt.want)
		}
	}
}

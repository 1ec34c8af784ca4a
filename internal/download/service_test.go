package download

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractGDriveID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://drive.google.com/file/d/1aB_c-D2/view?usp=sharing", "1aB_c-D2"},
		{"https://drive.google.com/open?id=XyZ_123-", "XyZ_123-"},
		{"https://drive.google.com/uc?export=download&id=QQ99", "QQ99"},
		{"https://example.com/file/d/abc/view", ""},
		{"not a url at all", ""},
	}
	for _, tt := range tests {
		if got := extractGDriveID(tt.url); got != tt.want {
			t.Errorf("extractGDriveID(%q)=%q want %q", tt.url, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("my song (live)!.mp3"); got != "my_song__live__.mp3" {
		t.Errorf("sanitizeFilename=%q", got)
	}
	if got := sanitizeFilename("plain-name_01.mp4"); got != "plain-name_01.mp4" {
		t.Errorf("safe name should pass through, got %q", got)
	}
}

func TestDetectExtension(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		return path
	}

	mp4 := append([]byte{0, 0, 0, 0x20}, []byte("ftypisom....")...)
	mkv := []byte{0x1A, 0x45, 0xDF, 0xA3, 0, 0, 0, 0, 0, 0, 0, 0}
	mp3 := append([]byte("ID3"), make([]byte, 9)...)
	wav := append([]byte("RIFF\x00\x00\x00\x00WAVE"), 0)
	junk := []byte("hello world!")

	tests := []struct {
		path string
		want string
	}{
		{write("a", mp4), ".mp4"},
		{write("b", mkv), ".mkv"},
		{write("c", mp3), ".mp3"},
		{write("d", wav), ".wav"},
		{write("e", junk), ""},
	}
	for _, tt := range tests {
		if got := detectExtension(tt.path); got != tt.want {
			t.Errorf("detectExtension(%s)=%q want %q", tt.path, got, tt.want)
		}
	}
}

func TestService_FromURL(t *testing.T) {
	body := append([]byte{0, 0, 0, 0x20}, []byte("ftypisom-the-rest-of-an-mp4")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	svc, err := NewService(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	path, err := svc.FromURL(context.Background(), srv.URL+"/library/track")
	if err != nil {
		t.Fatalf("FromURL: %v", err)
	}
	if filepath.Ext(path) != ".mp4" {
		t.Errorf("expected sniffed .mp4 extension, got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != string(body) {
		t.Error("stored file does not match served content")
	}
}

func TestService_FromURL_keeps_source_extension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not sniffable"))
	}))
	defer srv.Close()

	svc, err := NewService(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	path, err := svc.FromURL(context.Background(), srv.URL+"/library/track.mp3")
	if err != nil {
		t.Fatalf("FromURL: %v", err)
	}
	if !strings.HasSuffix(path, "track.mp3") {
		t.Errorf("expected the URL's filename to be kept, got %q", path)
	}
}

func TestService_FromURL_http_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	svc, err := NewService(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.FromURL(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error on HTTP 404")
	}
}

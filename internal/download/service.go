// Package download acquires media files from remote sources (direct URLs
// and Google Drive share links) and stores them locally. The supervisor
// only ever consumes the resulting local paths.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Minute

// gdrivePatterns match the file ID in the common Google Drive share link
// shapes: .../file/d/<id>/... and ...?id=<id>.
var gdrivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Service downloads remote files into a local storage directory.
type Service struct {
	storageDir string
	client     *http.Client
	log        *slog.Logger
}

// NewService creates the storage directory if needed and returns a service
// writing into it.
func NewService(storageDir string, log *slog.Logger) (*Service, error) {
	if storageDir == "" {
		storageDir = "./storage"
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Service{
		storageDir: storageDir,
		client:     &http.Client{Timeout: defaultTimeout},
		log:        log,
	}, nil
}

// FromURL downloads the file behind rawURL and returns its local path.
// Google Drive share links are rewritten to their direct-download form.
// The final filename carries an extension sniffed from the file contents
// when the source did not provide one.
func (s *Service) FromURL(ctx context.Context, rawURL string) (string, error) {
	downloadURL := rawURL
	baseName := ""

	if id := extractGDriveID(rawURL); id != "" {
		downloadURL = "https://drive.google.com/uc?export=download&id=" + id
		baseName = "gdrive_" + id
	} else {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("invalid url: %w", err)
		}
		baseName = sanitizeFilename(path.Base(parsed.Path))
	}
	if baseName == "" || baseName == "." || baseName == "/" {
		baseName = "download_" + uuid.NewString()
	}

	// Fetch into a scratch file first; the final name depends on the
	// sniffed extension.
	scratch := filepath.Join(s.storageDir, ".part_"+uuid.NewString())
	if err := s.fetch(ctx, downloadURL, scratch); err != nil {
		return "", err
	}

	finalPath := filepath.Join(s.storageDir, withDetectedExtension(baseName, scratch))
	if err := os.Rename(scratch, finalPath); err != nil {
		_ = os.Remove(scratch)
		return "", fmt.Errorf("store download: %w", err)
	}

	s.log.Info("file downloaded",
		slog.String("url", rawURL),
		slog.String("path", finalPath),
	)
	return finalPath, nil
}

func (s *Service) fetch(ctx context.Context, downloadURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: HTTP %d", downloadURL, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("download body: %w", err)
	}
	return out.Close()
}

// extractGDriveID returns the file ID embedded in a Google Drive link, or
// "" when the URL is not a Drive link.
func extractGDriveID(rawURL string) string {
	if !strings.Contains(rawURL, "drive.google.com") {
		return ""
	}
	for _, p := range gdrivePatterns {
		if m := p.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// sanitizeFilename strips characters that are unsafe in local filenames.
func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// withDetectedExtension appends a sniffed media extension to baseName when
// it has none. Unknown content keeps the name unchanged.
func withDetectedExtension(baseName, contentPath string) string {
	if filepath.Ext(baseName) != "" {
		return baseName
	}
	ext := detectExtension(contentPath)
	if ext == "" {
		return baseName
	}
	return baseName + ext
}

// detectExtension sniffs the container format from the file's leading
// bytes. Recognizes the formats the bot accepts: MP4, MKV/WebM, MP3, WAV.
func detectExtension(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && n < 4 {
		return ""
	}
	head = head[:n]

	switch {
	case n >= 12 && bytes.Equal(head[4:8], []byte("ftyp")):
		return ".mp4"
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		// EBML header: Matroska or WebM; .mkv plays either way.
		return ".mkv"
	case bytes.HasPrefix(head, []byte("ID3")),
		n >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return ".mp3"
	case n >= 12 && bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return ".wav"
	default:
		return ""
	}
}

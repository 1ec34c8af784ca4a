// Package encoder wraps the external transcoding process (ffmpeg) that
// carries a tenant's broadcast. The process is treated as opaque: callers
// own its handle for termination and inspect only liveness, never output.
package encoder

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

var command = exec.Command

// Settings carries the fixed encoding parameters of a broadcast. Each field
// is independently overridable via configuration.
type Settings struct {
	VideoBitrate string // e.g. "2500k"
	Resolution   string // e.g. "1920x1080"
	FPS          string // e.g. "30"
	AudioBitrate string // e.g. "128k"
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		VideoBitrate: "2500k",
		Resolution:   "1920x1080",
		FPS:          "30",
		AudioBitrate: "128k",
	}
}

// Process is an owned external encoder process: liveness inspection,
// graceful termination with a grace window, and force kill.
type Process interface {
	// Alive reports whether the process is still running.
	Alive() bool
	// Terminate signals the process to exit and waits up to grace before
	// force-killing it. Termination timeout is not surfaced as a failure.
	Terminate(grace time.Duration) error
	// Kill force-kills the process immediately.
	Kill() error
}

// Launcher spawns an encoder process reading the given concat manifest and
// publishing to the given output URL.
type Launcher interface {
	Launch(manifestPath, outputURL string) (Process, error)
}

// Option configures the FFmpeg launcher.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// FFmpeg launches ffmpeg configured for real-time paced, infinitely looped,
// manifest-driven concat input publishing a single FLV sink.
type FFmpeg struct {
	binary   string
	settings Settings
}

// NewFFmpeg constructs a launcher with the given settings.
func NewFFmpeg(settings Settings, opts ...Option) *FFmpeg {
	f := &FFmpeg{binary: "ffmpeg", settings: settings}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Launch implements Launcher.
func (f *FFmpeg) Launch(manifestPath, outputURL string) (Process, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path required")
	}
	if outputURL == "" {
		return nil, errors.New("output URL required")
	}

	cmd := command(f.binary, f.buildArgs(manifestPath, outputURL)...) //nolint:gosec
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", f.binary, err)
	}
	return newProcess(cmd), nil
}

// buildArgs assembles the full ffmpeg invocation: real-time read pacing,
// infinite input looping over the concat manifest, fixed video and audio
// encoding parameters, and a single FLV output sink.
func (f *FFmpeg) buildArgs(manifestPath, outputURL string) []string {
	return []string{
		"-re",
		"-stream_loop", "-1",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-b:v", f.settings.VideoBitrate,
		"-maxrate", f.settings.VideoBitrate,
		"-bufsize", bufsizeFor(f.settings.VideoBitrate),
		"-s", f.settings.Resolution,
		"-r", f.settings.FPS,
		"-g", strconv.Itoa(gopFor(f.settings.FPS)),
		"-c:a", "aac",
		"-b:a", f.settings.AudioBitrate,
		"-ar", "44100",
		"-f", "flv",
		outputURL,
	}
}

// bufsizeFor returns twice the video bitrate, accepting "2500k" or "2500"
// style values. Malformed bitrates fall back to 5000k.
func bufsizeFor(videoBitrate string) string {
	n, err := strconv.Atoi(strings.TrimRight(videoBitrate, "kK"))
	if err != nil {
		return "5000k"
	}
	return strconv.Itoa(n*2) + "k"
}

// gopFor returns a GOP of two seconds at the configured frame rate.
func gopFor(fps string) int {
	n, err := strconv.Atoi(fps)
	if err != nil {
		return 60
	}
	return n * 2
}

var _ Launcher = (*FFmpeg)(nil)

// process owns a started exec.Cmd. A reaper goroutine waits on the command
// so liveness checks never block and the child never zombies.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

func newProcess(cmd *exec.Cmd) *process {
	p := &process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p
}

// Alive implements Process.
func (p *process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate implements Process. It sends SIGTERM, waits up to grace for the
// process to exit, and escalates to SIGKILL if it is still running.
func (p *process) Terminate(grace time.Duration) error {
	if !p.Alive() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Already gone between the liveness check and the signal.
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
		return p.Kill()
	}
}

// Kill implements Process.
func (p *process) Kill() error {
	if !p.Alive() {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return err
	}
	<-p.done
	return nil
}

var _ Process = (*process)(nil)

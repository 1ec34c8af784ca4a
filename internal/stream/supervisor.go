package stream

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"livecast/internal/encoder"
	"livecast/internal/platform/metrics"
)

const (
	defaultPollInterval   = 30 * time.Second
	defaultRestartBackoff = 5 * time.Second
	defaultStopGrace      = 2 * time.Second
)

// Supervisor owns the tenant -> session map and drives every broadcast
// lifecycle operation: start, stop, switch, and the background monitor that
// relaunches dead encoder processes. All mutating operations serialize on a
// per-tenant lock; tenants are fully independent of each other.
type Supervisor struct {
	playlists *PlaylistStore
	creds     *CredentialsStore
	manifests *ManifestStore
	launcher  encoder.Launcher
	log       *slog.Logger
	metrics   *metrics.Metrics

	pollInterval   time.Duration
	restartBackoff time.Duration
	stopGrace      time.Duration

	mu       sync.Mutex
	sessions map[TenantID]*session
	locks    map[TenantID]*sync.Mutex
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithPollInterval overrides the monitor's liveness poll interval.
func WithPollInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithRestartBackoff overrides the wait before a crash-restart attempt.
func WithRestartBackoff(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.restartBackoff = d
		}
	}
}

// WithStopGrace overrides the graceful-termination window before force-kill.
func WithStopGrace(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.stopGrace = d
		}
	}
}

// WithMetrics attaches session metrics. May be omitted (e.g. in tests).
func WithMetrics(m *metrics.Metrics) SupervisorOption {
	return func(s *Supervisor) { s.metrics = m }
}

// NewSupervisor wires the stores, manifest writer, and encoder launcher
// into a supervisor with no active sessions.
func NewSupervisor(playlists *PlaylistStore, creds *CredentialsStore, manifests *ManifestStore, launcher encoder.Launcher, log *slog.Logger, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		playlists:      playlists,
		creds:          creds,
		manifests:      manifests,
		launcher:       launcher,
		log:            log,
		metrics:        nil,
		pollInterval:   defaultPollInterval,
		restartBackoff: defaultRestartBackoff,
		stopGrace:      defaultStopGrace,
		sessions:       make(map[TenantID]*session),
		locks:          make(map[TenantID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tenantLock returns the tenant's exclusion lock, creating it on first use.
// Locks are per tenant, never global, so tenants cannot stall each other.
func (s *Supervisor) tenantLock(tenant TenantID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lk, ok := s.locks[tenant]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[tenant] = lk
	}
	return lk
}

func (s *Supervisor) session(tenant TenantID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[tenant]
}

func (s *Supervisor) setSession(tenant TenantID, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tenant] = sess
}

func (s *Supervisor) removeSession(tenant TenantID, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[tenant] == sess {
		delete(s.sessions, tenant)
	}
}

// Start launches a broadcast for the tenant, streaming the playlist in a
// loop beginning at startIndex. It fails with ErrAlreadyActive when a live
// session exists (a stale dead session is torn down first), ErrNoFiles on
// an empty playlist, and ErrNoCredentials when no stream key resolves; the
// two precondition checks apply in that order. A failed start leaves the
// tenant exactly in the pre-call state.
func (s *Supervisor) Start(tenant TenantID, startIndex int) error {
	lk := s.tenantLock(tenant)
	lk.Lock()
	defer lk.Unlock()
	return s.startLocked(tenant, startIndex)
}

func (s *Supervisor) startLocked(tenant TenantID, startIndex int) error {
	if sess := s.session(tenant); sess != nil {
		if sess.Proc.Alive() {
			return ErrAlreadyActive
		}
		// Process exited without the monitor having reaped it yet.
		s.removeSession(tenant, sess)
	}

	files := s.playlists.Files(tenant)
	if len(files) == 0 {
		return ErrNoFiles
	}
	key := s.creds.ResolveKey(tenant)
	if key == "" {
		return ErrNoCredentials
	}
	endpoint := s.creds.ResolveEndpoint(tenant)

	if startIndex < 0 || startIndex >= len(files) {
		return ErrIndexOutOfRange
	}

	// The manifest streams from startIndex, wrapping around the playlist.
	ordered := append(append([]string{}, files[startIndex:]...), files[:startIndex]...)
	manifestPath, err := s.manifests.Write(tenant, ordered)
	if err != nil {
		return err
	}

	proc, err := s.launcher.Launch(manifestPath, endpoint+key)
	if err != nil {
		_ = s.manifests.Remove(tenant)
		return fmt.Errorf("%w: %v", ErrProcessLaunch, err)
	}

	sess := &session{
		StartedAt:    time.Now(),
		Files:        files,
		CurrentIndex: startIndex,
		Proc:         proc,
	}
	s.setSession(tenant, sess)
	s.playlists.SetCurrentIndex(tenant, startIndex)

	go s.monitor(tenant, sess)

	if s.metrics != nil {
		s.metrics.IncStarts()
	}
	s.log.Info("stream started",
		slog.Int64("tenant", int64(tenant)),
		slog.Int("files", len(files)),
		slog.Int("start_index", startIndex),
	)
	return nil
}

// Stop terminates the tenant's broadcast: graceful signal, a fixed grace
// window, then force-kill. It removes the session and the manifest file.
// Stopping an idle tenant is a no-op; Stop is idempotent.
func (s *Supervisor) Stop(tenant TenantID) {
	lk := s.tenantLock(tenant)
	lk.Lock()
	defer lk.Unlock()
	s.stopLocked(tenant)
}

func (s *Supervisor) stopLocked(tenant TenantID) {
	sess := s.session(tenant)
	if sess == nil {
		return
	}

	if err := sess.Proc.Terminate(s.stopGrace); err != nil {
		s.log.Error("encoder termination", slog.Int64("tenant", int64(tenant)), slog.String("error", err.Error()))
	}
	s.removeSession(tenant, sess)
	if err := s.manifests.Remove(tenant); err != nil {
		s.log.Error("manifest cleanup", slog.Int64("tenant", int64(tenant)), slog.String("error", err.Error()))
	}

	if s.metrics != nil {
		s.metrics.IncStops()
	}
	s.log.Info("stream stopped", slog.Int64("tenant", int64(tenant)))
}

// SwitchToFile changes which playlist entry plays first. On an inactive
// tenant it only records the selected index. On an active tenant it
// stops the running encoder and restarts it at index; the session's
// RestartRequested flag keeps the monitor from treating the deliberate
// stop as a crash. The external encoder has no dynamic-input API, so
// stop-and-restart is the switching strategy.
func (s *Supervisor) SwitchToFile(tenant TenantID, index int) error {
	lk := s.tenantLock(tenant)
	lk.Lock()
	defer lk.Unlock()
	return s.switchLocked(tenant, index)
}

func (s *Supervisor) switchLocked(tenant TenantID, index int) error {
	files := s.playlists.Files(tenant)
	if index < 0 || index >= len(files) {
		return ErrIndexOutOfRange
	}

	sess := s.session(tenant)
	if sess == nil || !sess.Proc.Alive() {
		s.playlists.SetCurrentIndex(tenant, index)
		return nil
	}

	sess.RestartRequested = true
	s.stopLocked(tenant)
	if err := s.startLocked(tenant, index); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncSwitches()
	}
	return nil
}

// NextFile switches to the entry after the current one, wrapping at the end
// of the playlist. It fails with ErrInsufficientFiles on playlists shorter
// than two entries.
func (s *Supervisor) NextFile(tenant TenantID) error {
	return s.step(tenant, 1)
}

// PrevFile switches to the entry before the current one, wrapping at the
// start of the playlist.
func (s *Supervisor) PrevFile(tenant TenantID) error {
	return s.step(tenant, -1)
}

func (s *Supervisor) step(tenant TenantID, delta int) error {
	lk := s.tenantLock(tenant)
	lk.Lock()
	defer lk.Unlock()

	n := s.playlists.Count(tenant)
	if n < 2 {
		return ErrInsufficientFiles
	}
	current := s.currentIndexLocked(tenant)
	next := ((current+delta)%n + n) % n
	return s.switchLocked(tenant, next)
}

// currentIndexLocked prefers the running session's index over the stored
// playlist selection.
func (s *Supervisor) currentIndexLocked(tenant TenantID) int {
	if sess := s.session(tenant); sess != nil && sess.Proc.Alive() {
		return sess.CurrentIndex
	}
	return s.playlists.CurrentIndex(tenant)
}

// RemoveFile removes a playlist entry by index. Removal is rejected with
// ErrStreamActive while a session is live; the encoder holds open handles
// on the playlist files.
func (s *Supervisor) RemoveFile(tenant TenantID, index int) (string, error) {
	lk := s.tenantLock(tenant)
	lk.Lock()
	defer lk.Unlock()

	if sess := s.session(tenant); sess != nil && sess.Proc.Alive() {
		return "", ErrStreamActive
	}
	return s.playlists.RemoveFile(tenant, index)
}

// Status reports the tenant's broadcast state. For an active session the
// totals come from the session's files snapshot; for an idle tenant they
// come from the live playlist store.
func (s *Supervisor) Status(tenant TenantID) Status {
	sess := s.session(tenant)
	if sess == nil || !sess.Proc.Alive() {
		return Status{
			Active:     false,
			TotalFiles: s.playlists.Count(tenant),
		}
	}

	current := "unknown"
	if sess.CurrentIndex >= 0 && sess.CurrentIndex < len(sess.Files) {
		current = filepath.Base(sess.Files[sess.CurrentIndex])
	}
	return Status{
		Active:      true,
		Uptime:      formatUptime(time.Since(sess.StartedAt)),
		CurrentFile: current,
		TotalFiles:  len(sess.Files),
	}
}

// ActiveSessionCount returns the number of tenants with a live encoder
// process. Used for metrics.
func (s *Supervisor) ActiveSessionCount() int {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	n := 0
	for _, sess := range sessions {
		if sess.Proc.Alive() {
			n++
		}
	}
	return n
}

// Shutdown stops every active tenant. Used on process exit so no encoder
// outlives the supervisor.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	tenants := make([]TenantID, 0, len(s.sessions))
	for tenant := range s.sessions {
		tenants = append(tenants, tenant)
	}
	s.mu.Unlock()

	for _, tenant := range tenants {
		s.Stop(tenant)
	}
}

// monitor polls the session's encoder process while the session remains
// installed for the tenant. A deliberate stop-for-switch exits silently;
// any other exit is a crash: bookkeeping is torn down, a fixed backoff
// elapses, and the stream is relaunched from index 0 of the live playlist.
// Restart attempts are unbounded; an empty playlist at restart time is the
// only terminal condition. Crash-restart resumes at index 0 rather than
// the index active at crash time.
func (s *Supervisor) monitor(tenant TenantID, sess *session) {
	for {
		time.Sleep(s.pollInterval)

		lk := s.tenantLock(tenant)
		lk.Lock()

		if s.session(tenant) != sess {
			// Stopped or replaced by a switch; another monitor owns the
			// new session.
			lk.Unlock()
			return
		}
		if sess.Proc.Alive() {
			lk.Unlock()
			continue
		}
		if sess.RestartRequested {
			s.log.Info("stream stopped for switch", slog.Int64("tenant", int64(tenant)))
			lk.Unlock()
			return
		}

		// Crash. Tear down the dead session, then retry after a backoff.
		s.log.Warn("encoder process died, attempting restart", slog.Int64("tenant", int64(tenant)))
		s.removeSession(tenant, sess)
		lk.Unlock()

		time.Sleep(s.restartBackoff)

		lk.Lock()
		if s.playlists.Count(tenant) == 0 {
			s.log.Error("cannot restart stream: playlist is empty", slog.Int64("tenant", int64(tenant)))
			lk.Unlock()
			return
		}
		err := s.startLocked(tenant, 0)
		lk.Unlock()

		if err != nil {
			s.log.Error("stream restart failed",
				slog.Int64("tenant", int64(tenant)),
				slog.String("error", err.Error()),
			)
		} else if s.metrics != nil {
			s.metrics.IncCrashRestarts()
		}
		return
	}
}

// formatUptime renders a duration as "XhYmZs" with spaces, matching the
// status surface contract.
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

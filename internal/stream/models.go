package stream

import (
	"time"

	"livecast/internal/encoder"
)

// TenantID uniquely identifies an independent broadcasting context
// (e.g. one chat group). Each tenant has its own playlist, credentials,
// and at most one active session.
type TenantID int64

// session holds the live state of one tenant's active broadcast. It exists
// only while the tenant is streaming and is owned exclusively by the
// Supervisor; the monitor goroutine observes it but never mutates Files.
type session struct {
	StartedAt time.Time

	// Files is a snapshot of the playlist taken at start time. Later
	// playlist edits do not affect an in-flight broadcast.
	Files []string

	// CurrentIndex points into Files at the entry the encoder was started on.
	CurrentIndex int

	// Proc owns the external encoder process for termination purposes.
	Proc encoder.Process

	// RestartRequested distinguishes a deliberate stop-for-switch from a
	// crash; the monitor exits silently when it is set.
	RestartRequested bool
}

// Status reports a tenant's broadcast state.
// When Active, Uptime/CurrentFile/TotalFiles describe the running session
// snapshot; when inactive, TotalFiles counts the live playlist instead.
type Status struct {
	Active      bool   `json:"is_active"`
	Uptime      string `json:"uptime,omitempty"`
	CurrentFile string `json:"current_file,omitempty"`
	TotalFiles  int    `json:"total_files"`
}

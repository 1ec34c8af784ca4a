package stream

import "errors"

var (
	// ErrAlreadyActive is returned by Start when the tenant already has a
	// session with a live encoder process.
	ErrAlreadyActive = errors.New("stream already active")

	// ErrNoFiles is returned by Start when the tenant's playlist is empty.
	ErrNoFiles = errors.New("no files in playlist")

	// ErrNoCredentials is returned by Start when no stream key resolves for
	// the tenant and no process-wide default exists.
	ErrNoCredentials = errors.New("no stream key configured")

	// ErrIndexOutOfRange is returned when a file index is outside [0, len).
	ErrIndexOutOfRange = errors.New("file index out of range")

	// ErrInsufficientFiles is returned by NextFile/PrevFile when the
	// playlist holds fewer than two entries.
	ErrInsufficientFiles = errors.New("need at least two files to skip")

	// ErrStreamActive rejects playlist removal while a session is live;
	// removal would race the encoder's open file handle.
	ErrStreamActive = errors.New("stream is active")

	// ErrProcessLaunch wraps a failure to spawn the external encoder.
	ErrProcessLaunch = errors.New("encoder launch failed")
)

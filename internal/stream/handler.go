package stream

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"livecast/internal/download"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the supervisor's tenant-scoped operations over HTTP using
// go-chi. It is one possible command front-end; the supervisor never
// depends on it.
type Handler struct {
	sup       *Supervisor
	creds     *CredentialsStore
	downloads *download.Service
	log       *slog.Logger
}

// NewHandler returns a Handler driving the given Supervisor. downloads may
// be nil to disable the remote-download endpoint (e.g. in tests).
func NewHandler(sup *Supervisor, creds *CredentialsStore, downloads *download.Service, log *slog.Logger) *Handler {
	return &Handler{sup: sup, creds: creds, downloads: downloads, log: log}
}

// Routes mounts all tenant routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Post("/files", h.AddFile)
		r.Post("/files/download", h.DownloadFile)
		r.Get("/files", h.ListFiles)
		r.Delete("/files/{index}", h.RemoveFile)

		r.Put("/current", h.SetCurrentIndex)
		r.Get("/current", h.GetCurrentIndex)

		r.Put("/credentials/key", h.SetKey)
		r.Put("/credentials/endpoint", h.SetEndpoint)
		r.Delete("/credentials/endpoint", h.ResetEndpoint)
		r.Get("/credentials", h.GetCredentials)

		r.Post("/stream/start", h.StartStream)
		r.Post("/stream/stop", h.StopStream)
		r.Post("/stream/switch", h.SwitchFile)
		r.Post("/stream/next", h.NextFile)
		r.Post("/stream/prev", h.PrevFile)
		r.Get("/status", h.GetStatus)
	})
}

func tenantParam(r *http.Request) (TenantID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "tenant"), 10, 64)
	if err != nil {
		return 0, false
	}
	return TenantID(id), true
}

func indexParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeSupervisorError maps the supervisor's typed outcomes to HTTP status
// codes: invalid indices are client errors, state preconditions are
// conflicts, launch failures are server errors.
func (h *Handler) writeSupervisorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrIndexOutOfRange):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrAlreadyActive),
		errors.Is(err, ErrStreamActive),
		errors.Is(err, ErrNoFiles),
		errors.Is(err, ErrNoCredentials),
		errors.Is(err, ErrInsufficientFiles):
		writeError(w, http.StatusConflict, err)
	default:
		h.log.Error("stream operation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err)
	}
}

// AddFile handles POST /tenants/{tenant}/files.
// Body: { "path": "/abs/path/to/file.mp4" }.
func (h *Handler) AddFile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.sup.playlists.AddFile(tenant, body.Path)
	h.log.Debug("file added",
		slog.Int64("tenant", int64(tenant)),
		slog.String("path", body.Path))
	writeJSON(w, http.StatusCreated, map[string]int{"total": h.sup.playlists.Count(tenant)})
}

// DownloadFile handles POST /tenants/{tenant}/files/download.
// Body: { "url": "https://drive.google.com/file/d/<id>/view" }.
// The file is fetched, stored locally, and appended to the playlist.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if h.downloads == nil {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	path, err := h.downloads.FromURL(r.Context(), body.URL)
	if err != nil {
		h.log.Error("download failed",
			slog.Int64("tenant", int64(tenant)),
			slog.String("url", body.URL),
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, err)
		return
	}

	h.sup.playlists.AddFile(tenant, path)
	writeJSON(w, http.StatusCreated, map[string]string{"path": path})
}

// ListFiles handles GET /tenants/{tenant}/files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	files := h.sup.playlists.Files(tenant)
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "total": len(files)})
}

// RemoveFile handles DELETE /tenants/{tenant}/files/{index}.
// Removal is rejected while the tenant is actively streaming.
func (h *Handler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	index, ok := indexParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	removed, err := h.sup.RemoveFile(tenant, index)
	if err != nil {
		h.writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": removed})
}

// SetCurrentIndex handles PUT /tenants/{tenant}/current.
// Body: { "index": 2 }.
func (h *Handler) SetCurrentIndex(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.sup.playlists.SetCurrentIndex(tenant, body.Index)
	writeJSON(w, http.StatusOK, map[string]int{"index": h.sup.playlists.CurrentIndex(tenant)})
}

// GetCurrentIndex handles GET /tenants/{tenant}/current.
func (h *Handler) GetCurrentIndex(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"index": h.sup.playlists.CurrentIndex(tenant)})
}

// SetKey handles PUT /tenants/{tenant}/credentials/key.
// Body: { "key": "abcd-efgh-ijkl" }.
func (h *Handler) SetKey(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Key == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.creds.SetKey(tenant, body.Key)
	h.log.Info("stream key set", slog.Int64("tenant", int64(tenant)))
	writeJSON(w, http.StatusOK, map[string]string{"key": MaskKey(body.Key)})
}

// SetEndpoint handles PUT /tenants/{tenant}/credentials/endpoint.
// Body: { "url": "rtmp://..." }.
func (h *Handler) SetEndpoint(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.creds.SetEndpoint(tenant, body.URL)
	h.log.Info("endpoint set", slog.Int64("tenant", int64(tenant)), slog.String("url", body.URL))
	w.WriteHeader(http.StatusOK)
}

// ResetEndpoint handles DELETE /tenants/{tenant}/credentials/endpoint.
func (h *Handler) ResetEndpoint(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.creds.ResetEndpoint(tenant)
	w.WriteHeader(http.StatusOK)
}

// GetCredentials handles GET /tenants/{tenant}/credentials. The stream key
// is masked; this surface reports configuration, it does not reveal it.
func (h *Handler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"endpoint": h.creds.ResolveEndpoint(tenant),
		"key":      MaskKey(h.creds.ResolveKey(tenant)),
	})
}

// StartStream handles POST /tenants/{tenant}/stream/start.
// Body (optional): { "index": 0 }.
func (h *Handler) StartStream(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	// An empty body starts at index 0.
	_ = json.NewDecoder(r.Body).Decode(&body)

	if err := h.sup.Start(tenant, body.Index); err != nil {
		h.writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sup.Status(tenant))
}

// StopStream handles POST /tenants/{tenant}/stream/stop. Idempotent.
func (h *Handler) StopStream(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.sup.Stop(tenant)
	w.WriteHeader(http.StatusOK)
}

// SwitchFile handles POST /tenants/{tenant}/stream/switch.
// Body: { "index": 2 }.
func (h *Handler) SwitchFile(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.sup.SwitchToFile(tenant, body.Index); err != nil {
		h.writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sup.Status(tenant))
}

// NextFile handles POST /tenants/{tenant}/stream/next.
func (h *Handler) NextFile(w http.ResponseWriter, r *http.Request) {
	h.stepFile(w, r, h.sup.NextFile)
}

// PrevFile handles POST /tenants/{tenant}/stream/prev.
func (h *Handler) PrevFile(w http.ResponseWriter, r *http.Request) {
	h.stepFile(w, r, h.sup.PrevFile)
}

func (h *Handler) stepFile(w http.ResponseWriter, r *http.Request, step func(TenantID) error) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := step(tenant); err != nil {
		h.writeSupervisorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sup.Status(tenant))
}

// GetStatus handles GET /tenants/{tenant}/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantParam(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.sup.Status(tenant))
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livecast/internal/download"
	"livecast/internal/encoder"
	"livecast/internal/platform/config"
	"livecast/internal/platform/logger"
	"livecast/internal/platform/metrics"
	"livecast/internal/stream"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
	storageDir := config.GetEnv("STORAGE_PATH", "./storage")
	scratchDir := config.GetEnv("SCRATCH_DIR", "")
	stopGrace := config.GetEnvSeconds("STOP_GRACE_SECONDS", 2*time.Second)
	pollInterval := config.GetEnvSeconds("MONITOR_POLL_SECONDS", 30*time.Second)
	restartBackoff := config.GetEnvSeconds("RESTART_BACKOFF_SECONDS", 5*time.Second)
	settings := config.LoadStreamSettings()

	log := logger.New(logLevel, logFormat)

	playlists := stream.NewPlaylistStore()
	creds := stream.NewCredentialsStore(settings.DefaultStreamKey, settings.DefaultEndpoint)
	manifests := stream.NewManifestStore(scratchDir)
	launcher := encoder.NewFFmpeg(encoder.Settings{
		VideoBitrate: settings.VideoBitrate,
		Resolution:   settings.Resolution,
		FPS:          settings.FPS,
		AudioBitrate: settings.AudioBitrate,
	}, encoder.WithBinary(config.GetEnv("FFMPEG_BINARY", "ffmpeg")))

	met := metrics.New()
	sup := stream.NewSupervisor(playlists, creds, manifests, launcher, log,
		stream.WithStopGrace(stopGrace),
		stream.WithPollInterval(pollInterval),
		stream.WithRestartBackoff(restartBackoff),
		stream.WithMetrics(met),
	)

	downloads, err := download.NewService(storageDir, log)
	if err != nil {
		log.Error("storage init", "error", err)
		os.Exit(1)
	}

	h := stream.NewHandler(sup, creds, downloads, log)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(sup.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"storage_dir", storageDir,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping streams and draining connections")

	sup.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

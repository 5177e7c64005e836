// Package api exposes the pipeline over HTTP: script submission with streamed
// progress, project status, run history, artifact maintenance and music
// upload, plus a websocket feed of progress records.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"storyreel/internal/batch"
	"storyreel/internal/config"
	"storyreel/internal/journal"
	"storyreel/internal/logging"
	"storyreel/internal/pipeline"
	"storyreel/internal/services"
)

// Runner is the pipeline surface the server drives.
type Runner interface {
	Run(ctx context.Context, submission string, resume bool, report batch.ReportFunc) (*pipeline.RunResult, error)
	Status() (*pipeline.ProjectStatus, error)
	DeleteScenes(selection string, keepAudio bool) ([]int, error)
	ClearRenders() ([]int, error)
}

// History reads recorded runs for the report endpoint. May be nil.
type History interface {
	RecentRuns(ctx context.Context, limit int) ([]journal.Run, error)
	SceneOutcomes(ctx context.Context, runID string) ([]journal.SceneOutcome, error)
}

// Server is the HTTP front end.
type Server struct {
	cfg     *config.Config
	runner  Runner
	history History
	logger  *slog.Logger
	hub     *hub
	router  chi.Router
}

// NewServer wires the routes.
func NewServer(cfg *config.Config, runner Runner, history History, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		history: history,
		logger:  logger.With(logging.String(logging.FieldComponent, "api")),
		hub:     newHub(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(4 * time.Hour))

	r.Route("/api", func(r chi.Router) {
		r.Post("/script", s.handleScript)
		r.Get("/status", s.handleStatus)
		r.Get("/report", s.handleReport)
		r.Post("/scenes/delete", s.handleDeleteScenes)
		r.Post("/renders/clear", s.handleClearRenders)
		r.Post("/music", s.handleMusicUpload)
	})
	r.Get("/ws", s.handleWebsocket)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving on the configured bind address.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Paths.APIBind,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", logging.String("bind", s.cfg.Paths.APIBind))
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleScript accepts a raw script submission and streams progress records as
// newline-delimited JSON while the run executes.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "script", "read body", err))
		return
	}
	resume := r.URL.Query().Get("resume") == "1"

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)

	report := func(rec batch.Progress) {
		_ = enc.Encode(rec)
		if flusher != nil {
			flusher.Flush()
		}
		s.hub.broadcast(rec)
	}

	result, err := s.runner.Run(r.Context(), string(body), resume, report)
	if err != nil {
		_ = enc.Encode(map[string]string{"error": err.Error()})
		return
	}
	_ = enc.Encode(map[string]any{
		"runId":     result.RunID,
		"merge":     result.MergeKind,
		"scenes":    result.SceneCount,
		"completed": len(result.Completed),
		"failed":    len(result.Failed),
		"output":    result.Output,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.runner.Status()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, services.Wrap(services.ErrConfiguration, "api", "report", "run history disabled", nil))
		return
	}
	runs, err := s.history.RecentRuns(r.Context(), 20)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

type deleteScenesRequest struct {
	Scenes    string `json:"scenes"`
	KeepAudio bool   `json:"keepAudio"`
}

func (s *Server) handleDeleteScenes(w http.ResponseWriter, r *http.Request) {
	var req deleteScenesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "delete", "decode request", err))
		return
	}
	deleted, err := s.runner.DeleteScenes(req.Scenes, req.KeepAudio)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleClearRenders(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.runner.ClearRenders()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cleared": cleared})
}

// handleMusicUpload stores an uploaded track under the music directory's mood
// folder so the assembler can pick it up.
func (s *Server) handleMusicUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Paths.MusicDir == "" {
		s.writeError(w, services.Wrap(services.ErrConfiguration, "api", "music", "music_dir not configured", nil))
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "music", "parse upload", err))
		return
	}
	file, header, err := r.FormFile("track")
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "music", "missing track field", err))
		return
	}
	defer file.Close()

	mood := strings.ToLower(strings.TrimSpace(r.FormValue("mood")))
	if mood == "" {
		mood = "neutral"
	}
	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "music", "bad file name", nil))
		return
	}
	destDir := filepath.Join(s.cfg.Paths.MusicDir, mood)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		s.writeError(w, services.Wrap(services.ErrTransient, "api", "music", "create mood dir", err))
		return
	}
	dest := filepath.Join(destDir, name)
	out, err := os.Create(dest)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrTransient, "api", "music", "create track file", err))
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		s.writeError(w, services.Wrap(services.ErrTransient, "api", "music", "write track", err))
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"stored": dest})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	// Reader loop exists only to notice the close.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ramionh/thrive-well-guide-sub001/internal/catalog"
	"github.com/ramionh/thrive-well-guide-sub001/internal/classifier"
	"github.com/ramionh/thrive-well-guide-sub001/internal/habit"
	"github.com/ramionh/thrive-well-guide-sub001/internal/models"
	"github.com/ramionh/thrive-well-guide-sub001/internal/progress"
	"github.com/ramionh/thrive-well-guide-sub001/internal/session"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option configures Opts.
type Option func(*Opts)

// WithAddr sets the listen address for the API server.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the HTTP API over the program engine.
type Server struct {
	store      store.Store
	catalog    *catalog.Catalog
	httpServer *http.Server
}

// NewServer creates an API server backed by the given store and step catalog.
func NewServer(st store.Store, cat *catalog.Catalog) *Server {
	return &Server{store: st, catalog: cat}
}

// Handler builds the route table for the API server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/steps", s.stepsHandler)
	mux.HandleFunc("/steps/", s.stepActionHandler)
	mux.HandleFunc("/answers/", s.answersHandler)
	mux.HandleFunc("/assessments", s.assessmentProgressHandler)
	mux.HandleFunc("/assessments/", s.assessmentSubmitHandler)
	mux.HandleFunc("/habits/focus", s.habitFocusHandler)
	mux.HandleFunc("/habits/", s.habitActionHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the API server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context, opts ...Option) error {
	cfg := Opts{Addr: ":8080"}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: starting API server", "addr", cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to run API server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("ok", nil))
}

// sessionFrom derives the caller's session from the X-User-ID header.
func (s *Server) sessionFrom(r *http.Request) (*session.Session, error) {
	return session.New(r.Header.Get("X-User-ID"))
}

// gateFor builds a progress gate for the caller's session. The gate reads
// the persisted progress rows on construction, so handlers always act on
// current state.
func (s *Server) gateFor(ctx context.Context, sess *session.Session) (*progress.Gate, error) {
	return progress.New(ctx, sess, s.store, s.catalog)
}

func (s *Server) assessorFor(sess *session.Session) *classifier.Assessor {
	return classifier.NewAssessor(sess, s.store)
}

func (s *Server) habitEngineFor(sess *session.Session) *habit.Engine {
	return habit.NewEngine(sess, s.store)
}

// statusForError maps engine errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownStep):
		return http.StatusNotFound
	case errors.Is(err, models.ErrFocusLimit):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmptyUserID),
		errors.Is(err, models.ErrEmptyFormKey),
		errors.Is(err, models.ErrEmptyHabitID),
		errors.Is(err, models.ErrUnknownCategory),
		errors.Is(err, models.ErrInvalidAnswer),
		errors.Is(err, models.ErrMissingAnswer),
		errors.Is(err, models.ErrHabitNotFocused),
		errors.Is(err, models.ErrInvalidPlanType),
		errors.Is(err, models.ErrInvalidWeekNumber),
		errors.Is(err, models.ErrNoCompleteObstacle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

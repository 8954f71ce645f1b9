// Package httpapi exposes the schedule CRUD control surface.
//
// Handlers only touch the store and the trigger registry; analysis work
// always runs off the request path (run-now responds 202 after handing
// the id to the scheduler).
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"linkscout/internal/store"
	logx "linkscout/pkg/logx"
)

// Config controls the HTTP listener.
type Config struct {
	Addr string // default ":3000"
}

// Triggers is the slice of the scheduler the control surface needs.
type Triggers interface {
	InstallRecurring(sch store.Schedule) error
	RemoveRecurring(scheduleID string)
	FireOnce(scheduleID string)
}

type Service struct {
	cfg      Config
	store    store.Store
	triggers Triggers
	log      logx.Logger

	srv *http.Server
}

func New(cfg Config, st store.Store, triggers Triggers, log logx.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = ":3000"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, store: st, triggers: triggers, log: log}
}

// Handler builds the router. Exposed separately so tests can drive it
// through httptest without a listener.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/schedules", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Post("/{id}/toggle", s.handleToggle)
		r.Delete("/{id}", s.handleDelete)
		r.Post("/{id}/run", s.handleRunNow)
	})
	return r
}

func (s *Service) Start(ctx context.Context) error {
	_ = ctx
	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		s.log.Info("http api listening", logx.String("addr", s.cfg.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http api server failed", logx.Err(err))
		}
	}()
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

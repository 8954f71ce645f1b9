package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"linkscout/internal/store"
	logx "linkscout/pkg/logx"
)

// scheduleView is the read shape of a schedule. The API key never
// leaves the process through the read interface.
type scheduleView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Channels  []string        `json:"channels"`
	Months    int             `json:"months"`
	Frequency store.Frequency `json:"frequency"`
	SendTime  string          `json:"sendTime"`
	Email     string          `json:"email"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"createdAt"`
}

func viewOf(sch store.Schedule) scheduleView {
	return scheduleView{
		ID:        sch.ID,
		Name:      sch.Name,
		Channels:  sch.Channels,
		Months:    sch.LookbackMonths,
		Frequency: sch.Frequency,
		SendTime:  sch.SendTime,
		Email:     sch.Email,
		Active:    sch.Active,
		CreatedAt: sch.CreatedAt,
	}
}

type createRequest struct {
	Name      string          `json:"name"`
	APIKey    string          `json:"apiKey"`
	Channels  []string        `json:"channels"`
	Months    int             `json:"months"`
	Frequency store.Frequency `json:"frequency"`
	SendTime  string          `json:"sendTime"`
	Email     string          `json:"email"`
}

type toggleRequest struct {
	Active bool `json:"active"`
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to list schedules", err)
		return
	}
	views := make([]scheduleView, 0, len(schedules))
	for _, sch := range schedules {
		views = append(views, viewOf(sch))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sch := store.Schedule{
		ID:             uuid.NewString(),
		Name:           req.Name,
		APIKey:         req.APIKey,
		Channels:       req.Channels,
		LookbackMonths: req.Months,
		Frequency:      req.Frequency,
		SendTime:       req.SendTime,
		Email:          req.Email,
		Active:         true,
		CreatedAt:      time.Now(),
	}
	if sch.LookbackMonths == 0 {
		sch.LookbackMonths = 6
	}
	if sch.SendTime == "" {
		sch.SendTime = "09:00"
	}

	// Validation happens before anything is persisted or scheduled.
	if err := sch.Validate(); err != nil {
		s.fail(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if err := s.store.Put(r.Context(), sch); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to persist schedule", err)
		return
	}
	if err := s.triggers.InstallRecurring(sch); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to install trigger", err)
		return
	}

	s.log.Info("schedule created", logx.String("schedule", sch.ID), logx.String("name", sch.Name))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "created", "id": sch.ID})
}

func (s *Service) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	sch, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.fail(w, http.StatusNotFound, "schedule not found", nil)
		return
	}
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to load schedule", err)
		return
	}

	sch.Active = req.Active
	if err := s.store.Put(r.Context(), sch); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to persist schedule", err)
		return
	}

	if req.Active {
		if err := s.triggers.InstallRecurring(sch); err != nil {
			s.fail(w, http.StatusInternalServerError, "failed to install trigger", err)
			return
		}
	} else {
		s.triggers.RemoveRecurring(id)
	}

	s.log.Info("schedule toggled", logx.String("schedule", id), logx.Bool("active", req.Active))
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to delete schedule", err)
		return
	}
	// Removing an absent trigger is fine; delete stays idempotent.
	s.triggers.RemoveRecurring(id)

	s.log.Info("schedule deleted", logx.String("schedule", id))
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Service) handleRunNow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Hand off and return; the run must never block the request path.
	s.triggers.FireOnce(id)

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "run started"})
}

func (s *Service) fail(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		s.log.Warn("request failed", logx.Int("status", status), logx.String("msg", msg), logx.Err(err))
	}
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

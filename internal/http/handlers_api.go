package http

import (
	"errors"
	"net/http"
	"time"

	"checkins/internal/core"
	applog "checkins/internal/log"
)

type checkinJSON struct {
	User      string    `json:"user"`
	Project   string    `json:"project"`
	Hours     float64   `json:"hours"`
	Timestamp time.Time `json:"timestamp"`
}

type projectHoursJSON struct {
	Project    string  `json:"project"`
	TotalHours float64 `json:"total_hours"`
}

type employeeHoursJSON struct {
	User       string  `json:"user"`
	TotalHours float64 `json:"total_hours"`
}

type monthHoursJSON struct {
	Month      string  `json:"month"` // YYYY-MM
	TotalHours float64 `json:"total_hours"`
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	applog.FromContext(ctx).ErrorContext(ctx, "API query failed",
		applog.FieldError, err,
		applog.FieldErrorType, applog.ErrorTypeDatabase,
		applog.FieldPath, r.URL.Path)
	writeJSONError(w, http.StatusInternalServerError, "query failed")
}

func (s *Server) handleAPIUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.reports.Users(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleAPICheckins(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get(paramUser)
	if user == "" {
		writeJSONError(w, http.StatusBadRequest, "user parameter is required")
		return
	}

	rows, err := s.reports.UserCheckins(r.Context(), user)
	switch {
	case errors.Is(err, core.ErrUnknownUser):
		writeJSONError(w, http.StatusNotFound, "unknown user")
		return
	case errors.Is(err, core.ErrEmptyUser):
		writeJSONError(w, http.StatusBadRequest, "user parameter is required")
		return
	case err != nil:
		s.queryFailed(w, r, err)
		return
	}

	out := make([]checkinJSON, len(rows))
	for i, c := range rows {
		out[i] = checkinJSON{User: c.User, Project: c.Project, Hours: c.Hours, Timestamp: c.Timestamp}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIHoursByProject(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.HoursByProject(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	out := make([]projectHoursJSON, len(rows))
	for i, p := range rows {
		out[i] = projectHoursJSON{Project: p.Project, TotalHours: p.TotalHours}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIHoursByEmployee(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.HoursByEmployee(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	out := make([]employeeHoursJSON, len(rows))
	for i, e := range rows {
		out[i] = employeeHoursJSON{User: e.User, TotalHours: e.TotalHours}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPIHoursByMonth(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.HoursByMonth(r.Context())
	if err != nil {
		s.queryFailed(w, r, err)
		return
	}
	out := make([]monthHoursJSON, len(rows))
	for i, m := range rows {
		out[i] = monthHoursJSON{Month: m.Label(), TotalHours: m.TotalHours}
	}
	writeJSON(w, http.StatusOK, out)
}

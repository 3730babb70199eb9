package http

import (
	"net/http"

	applog "checkins/internal/log"
)

// handleDashboard renders the dashboard. htmx requests get only the report
// fragment; plain requests get the full page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded")
		ErrorResponse(http.StatusInternalServerError, "templates not loaded").Write(w)
		return
	}

	sel := ParseSelection(r.URL.Query())
	d, err := s.reports.Dashboard(ctx, sel)

	resp := NewHTMXResponse()
	var data pageData
	if err != nil {
		logger.ErrorContext(ctx, "Dashboard failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		data = pageData{Selection: sel, Err: "Unable to load check-in data. Please try again later."}
		resp.Status(http.StatusInternalServerError)
	} else {
		data = newPageData(d)
	}

	name := "dashboard_page"
	if isHTMXRequest(r) {
		name = "report"
		resp.PushURL(SelectionQuery(data.Selection))
	}
	if err := resp.Template(s.templates, name, data); err != nil {
		logger.ErrorContext(ctx, "Dashboard template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			"template", name)
	}
	resp.Write(w)
}

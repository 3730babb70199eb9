package http

import (
	"net/http"
	"net/url"
	"strings"

	"checkins/internal/core"
)

// Query parameter names shared by the page, its form and the API.
const (
	paramUser      = "user"
	paramProjects  = "projects"
	paramEmployees = "employees"
	paramMonths    = "months"
)

// ParseSelection reads the dashboard UI state from the query string.
// Checkboxes count as set when present with a truthy value ("on" from a form).
func ParseSelection(query url.Values) core.Selection {
	return core.Selection{
		User:          query.Get(paramUser),
		ShowProjects:  parseCheckbox(query, paramProjects),
		ShowEmployees: parseCheckbox(query, paramEmployees),
		ShowMonths:    parseCheckbox(query, paramMonths),
	}
}

func parseCheckbox(query url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(query.Get(key))) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// SelectionQuery is the inverse of ParseSelection, used for HX-Push-Url.
func SelectionQuery(sel core.Selection) string {
	q := url.Values{}
	if sel.User != "" {
		q.Set(paramUser, sel.User)
	}
	if sel.ShowProjects {
		q.Set(paramProjects, "on")
	}
	if sel.ShowEmployees {
		q.Set(paramEmployees, "on")
	}
	if sel.ShowMonths {
		q.Set(paramMonths, "on")
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// isHTMXRequest reports whether r was issued by htmx rather than a full page load.
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-History-Restore-Request") != "true"
}

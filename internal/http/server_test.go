package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"checkins/internal/core"
	applog "checkins/internal/log"
	"checkins/internal/services"
)

type fakeReader struct {
	rows        []core.CheckIn
	projectsErr error
	usersErr    error
}

func (f *fakeReader) ListUsers(ctx context.Context) ([]string, error) {
	if f.usersErr != nil {
		return nil, f.usersErr
	}
	seen := map[string]bool{}
	out := []string{}
	for _, r := range f.rows {
		if !seen[r.User] {
			seen[r.User] = true
			out = append(out, r.User)
		}
	}
	return out, nil
}

func (f *fakeReader) ListCheckins(ctx context.Context, user string) ([]core.CheckIn, error) {
	out := []core.CheckIn{}
	for _, r := range f.rows {
		if r.User == user {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReader) HoursByProject(ctx context.Context) ([]core.ProjectHours, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return core.GroupHoursByProject(f.rows), nil
}

func (f *fakeReader) HoursByEmployee(ctx context.Context) ([]core.EmployeeHours, error) {
	if len(f.rows) == 0 {
		return []core.EmployeeHours{}, nil
	}
	return []core.EmployeeHours{{User: "alice", TotalHours: core.TotalHours(f.rows)}}, nil
}

func (f *fakeReader) HoursByMonth(ctx context.Context) ([]core.MonthHours, error) {
	out := []core.MonthHours{}
	for _, r := range f.rows {
		out = append(out, core.MonthHours{Month: core.MonthStart(r.Timestamp), TotalHours: r.Hours})
	}
	return out, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func scenarioRows() []core.CheckIn {
	return []core.CheckIn{
		{User: "alice", Project: "X", Hours: 3, Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{User: "alice", Project: "Y", Hours: 2, Timestamp: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
}

func newTestServer(t *testing.T, r *fakeReader, p Pinger) *Server {
	t.Helper()
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	svc := services.NewReportService(r, time.Second, logger)
	srv := NewServer(":0", svc, p, Options{Logger: logger, RateLimitRPM: 1000})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	if srv.templates == nil {
		t.Fatalf("templates failed to parse")
	}
	return srv
}

func do(t *testing.T, srv *Server, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows()}, fakePinger{})
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, &fakeReader{}, fakePinger{err: errors.New("connection refused")})
	if rr := do(t, down, http.MethodGet, "/readyz", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing ping status=%d, want 503", rr.Code)
	}
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows()}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/?user=alice&projects=on&months=on", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"<!doctype html>",
		"Showing data for: <strong>alice</strong>",
		"Hours per project by alice",
		"Total Hours Worked Per Project",
		"Total Hours Worked Per Month",
		`<option value="alice" selected>`,
		`name="projects" value="on" checked`,
		"by Carlo Catayna",
		"carlocatayna13@gmail.com",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "Total Hours Worked Per Employee") {
		t.Errorf("employee chart rendered without its checkbox")
	}
	if strings.Contains(body, "load_date_performed") {
		t.Errorf("load date must not be shown")
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("security headers missing")
	}
}

func TestDashboardHTMXFragment(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows()}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/?user=alice&employees=on", map[string]string{"HX-Request": "true"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<!doctype html>") {
		t.Errorf("htmx request should receive the fragment only")
	}
	if !strings.Contains(body, `id="report"`) || !strings.Contains(body, "Total Hours Worked Per Employee") {
		t.Errorf("fragment missing report content: %s", body)
	}
	if got := rr.Header().Get("HX-Push-Url"); got != "/?employees=on&user=alice" {
		t.Errorf("HX-Push-Url = %q", got)
	}
}

func TestDashboardSectionErrorIsolated(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows(), projectsErr: errors.New("boom")}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/?projects=on&months=on", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, sectionErrorText) {
		t.Errorf("expected error placeholder for the failed section")
	}
	if !strings.Contains(body, `id="chart-months"`) {
		t.Errorf("month chart should still render")
	}
}

func TestDashboardUsersFailure(t *testing.T) {
	srv := newTestServer(t, &fakeReader{usersErr: errors.New("relation does not exist")}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Unable to load check-in data") {
		t.Errorf("expected page-level error message")
	}
}

func TestDashboardEmptyTable(t *testing.T) {
	srv := newTestServer(t, &fakeReader{}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/?projects=on&employees=on&months=on", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<canvas") {
		t.Errorf("empty aggregates must not render charts")
	}
	if strings.Contains(body, "Showing data for") {
		t.Errorf("no user section without users")
	}
}

func TestDashboardEscapesUser(t *testing.T) {
	rows := []core.CheckIn{{User: `<b>eve</b>`, Project: "X", Hours: 1, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
	srv := newTestServer(t, &fakeReader{rows: rows}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/?user=%3Cb%3Eeve%3C%2Fb%3E", nil)
	if strings.Contains(rr.Body.String(), "<b>eve</b>") {
		t.Errorf("user name rendered unescaped")
	}
}

func TestDashboardNotFoundAndMethod(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows()}, fakePinger{})
	if rr := do(t, srv, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST / status=%d", rr.Code)
	}
}

func TestAPI(t *testing.T) {
	srv := newTestServer(t, &fakeReader{rows: scenarioRows()}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/api/users", nil)
	var users []string
	if err := json.Unmarshal(rr.Body.Bytes(), &users); err != nil || len(users) != 1 || users[0] != "alice" {
		t.Fatalf("users = %s (err=%v)", rr.Body.String(), err)
	}

	rr = do(t, srv, http.MethodGet, "/api/checkins?user=alice", nil)
	var rows []checkinJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &rows); err != nil || len(rows) != 2 {
		t.Fatalf("checkins = %s (err=%v)", rr.Body.String(), err)
	}
	if strings.Contains(rr.Body.String(), "load_date") {
		t.Errorf("load date leaked into API")
	}

	if rr := do(t, srv, http.MethodGet, "/api/checkins", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("missing user status=%d, want 400", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/checkins?user=mallory", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown user status=%d, want 404", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/hours/projects", nil)
	var projects []projectHoursJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &projects); err != nil || len(projects) != 2 || projects[0] != (projectHoursJSON{"X", 3}) {
		t.Fatalf("projects = %s (err=%v)", rr.Body.String(), err)
	}

	rr = do(t, srv, http.MethodGet, "/api/hours/employees", nil)
	var employees []employeeHoursJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &employees); err != nil || len(employees) != 1 || employees[0].TotalHours != 5 {
		t.Fatalf("employees = %s (err=%v)", rr.Body.String(), err)
	}

	rr = do(t, srv, http.MethodGet, "/api/hours/months", nil)
	var months []monthHoursJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &months); err != nil || len(months) != 2 {
		t.Fatalf("months = %s (err=%v)", rr.Body.String(), err)
	}
	if months[0] != (monthHoursJSON{"2024-01", 3}) || months[1] != (monthHoursJSON{"2024-02", 2}) {
		t.Errorf("months = %+v", months)
	}
}

func TestUserWithSurroundingWhitespace(t *testing.T) {
	rows := []core.CheckIn{{User: "bob ", Project: "X", Hours: 4, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}}
	srv := newTestServer(t, &fakeReader{rows: rows}, fakePinger{})

	rr := do(t, srv, http.MethodGet, "/api/users", nil)
	if strings.TrimSpace(rr.Body.String()) != `["bob "]` {
		t.Fatalf("users = %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/checkins?user=bob%20", nil)
	var got []checkinJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); rr.Code != http.StatusOK || err != nil || len(got) != 1 {
		t.Fatalf("checkins status=%d body=%s (err=%v)", rr.Code, rr.Body.String(), err)
	}
	if rr := do(t, srv, http.MethodGet, "/api/checkins?user=bob", nil); rr.Code != http.StatusNotFound {
		t.Errorf("trimmed user status=%d, want 404", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/?user=bob%20", nil)
	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "Showing data for: <strong>bob </strong>") {
		t.Fatalf("status=%d, user section missing", rr.Code)
	}
	if strings.Contains(body, "Unknown user") {
		t.Errorf("listed user rejected as unknown")
	}
}

func TestAPIEmptyAndFailure(t *testing.T) {
	srv := newTestServer(t, &fakeReader{}, fakePinger{})
	for _, path := range []string{"/api/users", "/api/hours/projects", "/api/hours/employees", "/api/hours/months"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
			t.Errorf("%s = %d %q, want 200 []", path, rr.Code, rr.Body.String())
		}
	}

	failing := newTestServer(t, &fakeReader{projectsErr: errors.New("timeout")}, fakePinger{})
	rr := do(t, failing, http.MethodGet, "/api/hours/projects", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status=%d, want 500", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	svc := services.NewReportService(&fakeReader{rows: scenarioRows()}, time.Second, logger)
	srv := NewServer(":0", svc, fakePinger{}, Options{Logger: logger, RateLimitRPM: 2})
	defer srv.Shutdown(context.Background())

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/users", nil); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	if rr := do(t, srv, http.MethodGet, "/api/users", nil); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Errorf("health checks are not rate limited, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, &fakeReader{}, fakePinger{})
	for _, path := range []string{"/static/js/charts.js", "/static/css/app.css"} {
		if rr := do(t, srv, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

func TestShutdownLogsRequestSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&buf, nil)})
	svc := services.NewReportService(&fakeReader{rows: scenarioRows()}, time.Second, logger)
	srv := NewServer(":0", svc, fakePinger{}, Options{Logger: logger, RateLimitRPM: 1})

	do(t, srv, http.MethodGet, "/api/users", nil)
	do(t, srv, http.MethodGet, "/api/users", nil)
	do(t, srv, http.MethodGet, "/?q=union+select+1", nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Request summary", "total_requests=3", "rate_limited=2", "suspicious_requests=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("shutdown log missing %q:\n%s", want, out)
		}
	}
}

func TestTrustedProxyClientsLimitedSeparately(t *testing.T) {
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	svc := services.NewReportService(&fakeReader{rows: scenarioRows()}, time.Second, logger)
	srv := NewServer(":0", svc, fakePinger{}, Options{
		Logger:         logger,
		RateLimitRPM:   1,
		TrustedProxies: []string{"203.0.113.0/24", "not-a-cidr"},
	})
	defer srv.Shutdown(context.Background())

	get := func(client string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = "203.0.113.9:41000"
		req.Header.Set("X-Forwarded-For", client)
		srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}
	if code := get("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("first client status=%d", code)
	}
	if code := get("198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("repeat client status=%d, want 429", code)
	}
	if code := get("198.51.100.2"); code != http.StatusOK {
		t.Fatalf("second client behind the proxy status=%d, want 200", code)
	}
}

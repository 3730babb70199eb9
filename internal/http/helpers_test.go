package http

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"checkins/internal/core"
)

func TestFormatHours(t *testing.T) {
	tests := map[float64]string{
		3:       "3",
		2.5:     "2.5",
		1.23456: "1.23",
		0:       "0",
		7.999:   "8",
	}
	for in, want := range tests {
		if got := formatHours(in); got != want {
			t.Errorf("formatHours(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestNewPageData(t *testing.T) {
	d := core.Dashboard{
		Users:     []string{"alice"},
		Selection: core.Selection{User: "alice", ShowMonths: true, ShowProjects: true},
		User: &core.UserReport{
			User: "alice",
			Checkins: []core.CheckIn{
				{User: "alice", Project: "X", Hours: 3, Timestamp: time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)},
			},
			ByProject: []core.ProjectHours{{Project: "X", TotalHours: 3}},
		},
		Projects: core.Section[core.ProjectHours]{Enabled: true, Err: errors.New("boom")},
		Months: core.Section[core.MonthHours]{Enabled: true, Rows: []core.MonthHours{
			{Month: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TotalHours: 3},
		}},
	}

	p := newPageData(d)
	if p.User == nil || len(p.User.Rows) != 1 || p.User.Rows[0].Timestamp != "2024-01-05 09:30" {
		t.Fatalf("user view = %+v", p.User)
	}
	if p.User.TotalHours != 3 {
		t.Errorf("TotalHours = %v", p.User.TotalHours)
	}
	if p.Employees != nil {
		t.Errorf("disabled section should be nil")
	}
	if p.Projects == nil || p.Projects.Err == "" {
		t.Errorf("failed section should carry a placeholder: %+v", p.Projects)
	}

	var spec chartSpec
	if err := json.Unmarshal([]byte(p.Months.Spec), &spec); err != nil {
		t.Fatalf("month spec: %v", err)
	}
	if spec.Kind != "line" || spec.XLabel != "Month" || spec.YLabel != "Total Hours Worked" {
		t.Errorf("month spec = %+v", spec)
	}
	if len(spec.Labels) != 1 || spec.Labels[0] != "2024-01" || spec.Values[0] != 3 {
		t.Errorf("month series = %v / %v", spec.Labels, spec.Values)
	}

	var userSpec chartSpec
	if err := json.Unmarshal([]byte(p.User.Chart.Spec), &userSpec); err != nil {
		t.Fatalf("user spec: %v", err)
	}
	if userSpec.Kind != "bar" || userSpec.Title != "Hours per project by alice" || userSpec.XLabel != "Project" {
		t.Errorf("user spec = %+v", userSpec)
	}
}

func TestNewPageDataUnknownUser(t *testing.T) {
	p := newPageData(core.Dashboard{User: &core.UserReport{User: "mallory", Err: core.ErrUnknownUser}})
	if p.User == nil || p.User.Err != "Unknown user." {
		t.Errorf("user view = %+v", p.User)
	}
}

func TestEmptyChart(t *testing.T) {
	c := employeeChart(nil)
	if !c.Empty {
		t.Errorf("chart without rows should be empty")
	}
	var spec chartSpec
	if err := json.Unmarshal([]byte(c.Spec), &spec); err != nil {
		t.Fatalf("spec: %v", err)
	}
	if spec.Labels == nil || spec.Values == nil {
		t.Errorf("series should encode as [] not null: %s", c.Spec)
	}
}

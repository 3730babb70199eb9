package http

import (
	"encoding/json"
	"errors"
	"html/template"
	"math"
	"strconv"
	"time"

	"checkins/internal/core"
)

const (
	timestampLayout = "2006-01-02 15:04"
	hoursAxisLabel  = "Total Hours Worked"
)

var templateFuncs = template.FuncMap{
	"hours": formatHours,
}

// formatHours renders hours with at most two decimals and no trailing zeros.
func formatHours(h float64) string {
	return strconv.FormatFloat(roundHours(h), 'f', -1, 64)
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func isUnknownUser(err error) bool {
	return errors.Is(err, core.ErrUnknownUser) || errors.Is(err, core.ErrEmptyUser)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

// chartView carries one chart to the template. Spec is the JSON read by
// static/js/charts.js from the canvas data attribute.
type chartView struct {
	ID    string
	Title string
	Spec  string
	Empty bool
	Err   string
}

type chartSpec struct {
	Kind   string    `json:"kind"` // bar or line
	Title  string    `json:"title"`
	XLabel string    `json:"xLabel"`
	YLabel string    `json:"yLabel"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func newChart(id, kind, title, xLabel string, labels []string, values []float64) chartView {
	spec := chartSpec{
		Kind:   kind,
		Title:  title,
		XLabel: xLabel,
		YLabel: hoursAxisLabel,
		Labels: labels,
		Values: values,
	}
	b, _ := json.Marshal(spec)
	return chartView{ID: id, Title: title, Spec: string(b), Empty: len(labels) == 0}
}

func projectChart(id, title string, rows []core.ProjectHours) chartView {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Project, roundHours(r.TotalHours)
	}
	return newChart(id, "bar", title, "Project", labels, values)
}

func employeeChart(rows []core.EmployeeHours) chartView {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.User, roundHours(r.TotalHours)
	}
	return newChart("chart-employees", "bar", "Total Hours Worked Per Employee", "Employee", labels, values)
}

func monthChart(rows []core.MonthHours) chartView {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i], values[i] = r.Label(), roundHours(r.TotalHours)
	}
	return newChart("chart-months", "line", "Total Hours Worked Per Month", "Month", labels, values)
}

type checkinRow struct {
	User      string
	Project   string
	Hours     float64
	Timestamp string
}

type userView struct {
	Name       string
	Rows       []checkinRow
	TotalHours float64
	Chart      chartView
	Err        string
}

// pageData is the root of the dashboard templates.
type pageData struct {
	Users     []string
	Selection core.Selection
	User      *userView
	Projects  *chartView
	Employees *chartView
	Months    *chartView
	Err       string
}

const sectionErrorText = "Unable to load this section. Please try again later."

func sectionError(err error) string {
	if err == nil {
		return ""
	}
	return sectionErrorText
}

// newPageData flattens a dashboard into template-friendly values.
// Disabled sections stay nil and are not rendered.
func newPageData(d core.Dashboard) pageData {
	p := pageData{Users: d.Users, Selection: d.Selection}

	if u := d.User; u != nil {
		v := &userView{Name: u.User}
		switch {
		case u.Err == nil:
			v.Rows = make([]checkinRow, len(u.Checkins))
			for i, c := range u.Checkins {
				v.Rows[i] = checkinRow{User: c.User, Project: c.Project, Hours: c.Hours, Timestamp: formatTimestamp(c.Timestamp)}
			}
			v.TotalHours = core.TotalHours(u.Checkins)
			v.Chart = projectChart("chart-user", "Hours per project by "+u.User, u.ByProject)
		case isUnknownUser(u.Err):
			v.Err = "Unknown user."
		default:
			v.Err = sectionErrorText
		}
		p.User = v
	}

	if d.Projects.Enabled {
		c := projectChart("chart-projects", "Total Hours Worked Per Project", d.Projects.Rows)
		c.Err = sectionError(d.Projects.Err)
		p.Projects = &c
	}
	if d.Employees.Enabled {
		c := employeeChart(d.Employees.Rows)
		c.Err = sectionError(d.Employees.Err)
		p.Employees = &c
	}
	if d.Months.Enabled {
		c := monthChart(d.Months.Rows)
		c.Err = sectionError(d.Months.Err)
		p.Months = &c
	}
	return p
}

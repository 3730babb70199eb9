package core

import "time"

// ProjectHours is total hours aggregated by project.
type ProjectHours struct {
	Project    string
	TotalHours float64
}

// EmployeeHours is total hours aggregated by user.
type EmployeeHours struct {
	User       string
	TotalHours float64
}

// MonthHours is total hours aggregated by calendar month.
type MonthHours struct {
	Month      time.Time // first instant of the month, UTC
	TotalHours float64
}

// Label formats the month as YYYY-MM.
func (m MonthHours) Label() string {
	return m.Month.Format("2006-01")
}

// UserReport is the per-user section of the dashboard.
type UserReport struct {
	User      string
	Checkins  []CheckIn
	ByProject []ProjectHours
	Err       error
}

// Section holds one aggregate chart and the error that stopped it, if any.
type Section[T any] struct {
	Enabled bool
	Rows    []T
	Err     error
}

// Dashboard is everything one page render needs.
type Dashboard struct {
	Users     []string
	Selection Selection
	User      *UserReport
	Projects  Section[ProjectHours]
	Employees Section[EmployeeHours]
	Months    Section[MonthHours]
}

package core

import (
	"errors"
	"time"
)

type (
	// CheckIn is one row of tm_daily_checkin, without the load date.
	CheckIn struct {
		User      string
		Project   string
		Hours     float64
		Timestamp time.Time
	}

	// Selection is the UI state of one dashboard interaction.
	Selection struct {
		User          string // empty when no user is selected
		ShowProjects  bool
		ShowEmployees bool
		ShowMonths    bool
	}
)

var (
	ErrEmptyUser   = errors.New("empty user")
	ErrUnknownUser = errors.New("unknown user")
)

// ValidateUser checks that user is non-empty and one of known. Values are
// compared verbatim, surrounding whitespace included.
func ValidateUser(user string, known []string) error {
	if user == "" {
		return ErrEmptyUser
	}
	for _, k := range known {
		if k == user {
			return nil
		}
	}
	return ErrUnknownUser
}

// MonthStart returns the first instant of t's calendar month, as read in t's
// own location, expressed in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// IsEmpty reports whether no aggregate section was requested.
func (s Selection) IsEmpty() bool {
	return !s.ShowProjects && !s.ShowEmployees && !s.ShowMonths
}

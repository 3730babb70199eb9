package report

import (
	"context"

	"checkins/internal/core"
)

// Ports for the read-only data access layer.
type (
	UserLister interface {
		// ListUsers returns the distinct user identifiers present in the table.
		ListUsers(ctx context.Context) ([]string, error)
	}

	CheckinReader interface {
		// ListCheckins returns every row logged by user.
		ListCheckins(ctx context.Context, user string) ([]core.CheckIn, error)
	}

	// AggregateReader provides sums of hours over the whole table.
	AggregateReader interface {
		HoursByProject(ctx context.Context) ([]core.ProjectHours, error)
		HoursByEmployee(ctx context.Context) ([]core.EmployeeHours, error)
		// HoursByMonth is ordered by month ascending.
		HoursByMonth(ctx context.Context) ([]core.MonthHours, error)
	}

	Reader interface {
		UserLister
		CheckinReader
		AggregateReader
	}
)

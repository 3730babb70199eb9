package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"checkins/internal/core"
	applog "checkins/internal/log"
	"checkins/internal/report"
)

// Section names used in logs and error placeholders
const (
	SectionUsers     = "users"
	SectionCheckins  = "checkins"
	SectionProjects  = "projects"
	SectionEmployees = "employees"
	SectionMonths    = "months"
)

// ReportService runs the dashboard queries for one interaction.
// It holds no result state between calls.
type ReportService struct {
	reader  report.Reader
	timeout time.Duration
	logger  *applog.Logger
}

// NewReportService wraps reader. A zero timeout leaves deadlines to the caller.
func NewReportService(reader report.Reader, timeout time.Duration, logger *applog.Logger) *ReportService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReportService{
		reader:  reader,
		timeout: timeout,
		logger:  logger,
	}
}

// log prefers the request logger carried by ctx so query lines keep its request_id.
func (s *ReportService) log(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContextOr(ctx, s.logger).WithComponent(applog.ComponentReport))
}

func (s *ReportService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Users returns the distinct users, sorted.
func (s *ReportService) Users(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, err := s.reader.ListUsers(ctx)
	if err != nil {
		s.log(ctx).LogQueryError(ctx, SectionUsers, "", err)
		return nil, err
	}
	s.log(ctx).LogQuery(ctx, SectionUsers, "", len(users))
	return users, nil
}

// UserCheckins returns the rows of a user listed by Users.
func (s *ReportService) UserCheckins(ctx context.Context, user string) ([]core.CheckIn, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	if err := core.ValidateUser(user, users); err != nil {
		return nil, fmt.Errorf("%w: %q", err, user)
	}
	return s.checkins(ctx, user)
}

func (s *ReportService) checkins(ctx context.Context, user string) ([]core.CheckIn, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.reader.ListCheckins(ctx, user)
	if err != nil {
		s.log(ctx).LogQueryError(ctx, SectionCheckins, user, err)
		return nil, err
	}
	s.log(ctx).LogQuery(ctx, SectionCheckins, user, len(rows))
	return rows, nil
}

func (s *ReportService) HoursByProject(ctx context.Context) ([]core.ProjectHours, error) {
	return aggregate(ctx, s, SectionProjects, s.reader.HoursByProject)
}

func (s *ReportService) HoursByEmployee(ctx context.Context) ([]core.EmployeeHours, error) {
	return aggregate(ctx, s, SectionEmployees, s.reader.HoursByEmployee)
}

func (s *ReportService) HoursByMonth(ctx context.Context) ([]core.MonthHours, error) {
	return aggregate(ctx, s, SectionMonths, s.reader.HoursByMonth)
}

func aggregate[T any](ctx context.Context, s *ReportService, section string, query func(context.Context) ([]T, error)) ([]T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := query(ctx)
	if err != nil {
		s.log(ctx).LogQueryError(ctx, section, "", err)
		return nil, err
	}
	s.log(ctx).LogQuery(ctx, section, "", len(rows))
	return rows, nil
}

// Dashboard builds one page interaction. Failing to list users fails the
// whole page; any other failure is recorded on its section only.
// Without an explicit user the first listed user is shown.
func (s *ReportService) Dashboard(ctx context.Context, sel core.Selection) (core.Dashboard, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	if sel.User == "" && len(users) > 0 {
		sel.User = users[0]
	}

	d := core.Dashboard{
		Users:     users,
		Selection: sel,
		Projects:  core.Section[core.ProjectHours]{Enabled: sel.ShowProjects},
		Employees: core.Section[core.EmployeeHours]{Enabled: sel.ShowEmployees},
		Months:    core.Section[core.MonthHours]{Enabled: sel.ShowMonths},
	}

	// Each goroutine owns one field of d; errors never cancel siblings.
	var g errgroup.Group

	if sel.User != "" {
		d.User = &core.UserReport{User: sel.User}
		if err := core.ValidateUser(sel.User, users); err != nil {
			d.User.Err = err
		} else {
			g.Go(func() error {
				rows, err := s.checkins(ctx, sel.User)
				if err != nil {
					d.User.Err = err
					return nil
				}
				d.User.Checkins = rows
				d.User.ByProject = core.GroupHoursByProject(rows)
				return nil
			})
		}
	}
	if sel.ShowProjects {
		g.Go(func() error {
			d.Projects.Rows, d.Projects.Err = s.HoursByProject(ctx)
			return nil
		})
	}
	if sel.ShowEmployees {
		g.Go(func() error {
			d.Employees.Rows, d.Employees.Err = s.HoursByEmployee(ctx)
			return nil
		})
	}
	if sel.ShowMonths {
		g.Go(func() error {
			d.Months.Rows, d.Months.Err = s.HoursByMonth(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return d, nil
}

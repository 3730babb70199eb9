package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"checkins/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Repository runs the dashboard's fixed read-only queries.
// It implements report.Reader.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	queries queries
}

// PoolConfig bounds the connection pool. Connections are checked out per query.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig returns conservative pool limits.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Open connects to dsn with the given dialect and verifies the connection.
func Open(ctx context.Context, d Dialect, dsn string, pool PoolConfig) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("storage: DSN is required")
	}
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name, err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d.Name, err)
	}

	return New(db, d), nil
}

// New wraps an already opened database.
func New(db *sql.DB, d Dialect) *Repository {
	return &Repository{db: db, dialect: d, queries: newQueries(d)}
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Dialect returns the SQL dialect in use.
func (r *Repository) Dialect() Dialect { return r.dialect }

// ListUsers implements report.UserLister
func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.queries.listUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	// A NULL user can never match the bound equality in ListCheckins, so
	// it is not offered for selection.
	users := []string{}
	for rows.Next() {
		var u sql.NullString
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.Valid {
			users = append(users, u.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListCheckins implements report.CheckinReader
func (r *Repository) ListCheckins(ctx context.Context, user string) ([]core.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, r.queries.listCheckins, user)
	if err != nil {
		return nil, fmt.Errorf("list checkins for %q: %w", user, err)
	}
	defer rows.Close()

	out := []core.CheckIn{}
	for rows.Next() {
		var (
			u, project sql.NullString
			hours      numeric
			ts         timestamp
		)
		if err := rows.Scan(&u, &project, &hours, &ts); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		out = append(out, core.CheckIn{
			User:      nullText(u),
			Project:   nullText(project),
			Hours:     float64(hours),
			Timestamp: ts.Time(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkins for %q: %w", user, err)
	}

	slog.DebugContext(ctx, "Checkins loaded", "user", user, "count", len(out))
	return out, nil
}

// HoursByProject implements report.AggregateReader
func (r *Repository) HoursByProject(ctx context.Context) ([]core.ProjectHours, error) {
	rows, err := r.db.QueryContext(ctx, r.queries.hoursByProject)
	if err != nil {
		return nil, fmt.Errorf("hours by project: %w", err)
	}
	defer rows.Close()

	out := []core.ProjectHours{}
	for rows.Next() {
		var (
			project sql.NullString
			total   numeric
		)
		if err := rows.Scan(&project, &total); err != nil {
			return nil, fmt.Errorf("scan project hours: %w", err)
		}
		out = append(out, core.ProjectHours{Project: nullText(project), TotalHours: float64(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hours by project: %w", err)
	}
	return out, nil
}

// HoursByEmployee implements report.AggregateReader
func (r *Repository) HoursByEmployee(ctx context.Context) ([]core.EmployeeHours, error) {
	rows, err := r.db.QueryContext(ctx, r.queries.hoursByEmployee)
	if err != nil {
		return nil, fmt.Errorf("hours by employee: %w", err)
	}
	defer rows.Close()

	out := []core.EmployeeHours{}
	for rows.Next() {
		var (
			u     sql.NullString
			total numeric
		)
		if err := rows.Scan(&u, &total); err != nil {
			return nil, fmt.Errorf("scan employee hours: %w", err)
		}
		out = append(out, core.EmployeeHours{User: nullText(u), TotalHours: float64(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hours by employee: %w", err)
	}
	return out, nil
}

// HoursByMonth implements report.AggregateReader
func (r *Repository) HoursByMonth(ctx context.Context) ([]core.MonthHours, error) {
	rows, err := r.db.QueryContext(ctx, r.queries.hoursByMonth)
	if err != nil {
		return nil, fmt.Errorf("hours by month: %w", err)
	}
	defer rows.Close()

	out := []core.MonthHours{}
	for rows.Next() {
		var (
			m     month
			total numeric
		)
		if err := rows.Scan(&m, &total); err != nil {
			return nil, fmt.Errorf("scan month hours: %w", err)
		}
		// Rows without a timestamp have no month to plot.
		if !m.Valid {
			continue
		}
		out = append(out, core.MonthHours{Month: m.Time(), TotalHours: float64(total)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hours by month: %w", err)
	}
	return out, nil
}

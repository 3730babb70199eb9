package storage

import (
	"fmt"
	"strconv"
)

// Dialect captures the few places where the backends disagree on SQL.
type Dialect struct {
	Name       string
	DriverName string
	// MonthExpr renders the calendar month of the "timestamp" column as
	// YYYY-MM text, read in the session's own time zone.
	MonthExpr   string
	placeholder func(n int) string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		DriverName:  "pgx",
		MonthExpr:   `to_char(DATE_TRUNC('month', "timestamp"), 'YYYY-MM')`,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}

	SQLite = Dialect{
		Name:        "sqlite",
		DriverName:  "sqlite",
		MonthExpr:   `strftime('%Y-%m', "timestamp")`,
		placeholder: func(int) string { return "?" },
	}
)

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unknown dialect %q", name)
	}
}

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// queries holds the fixed statements, rendered once per dialect.
type queries struct {
	listUsers       string
	listCheckins    string
	hoursByProject  string
	hoursByEmployee string
	hoursByMonth    string
}

func newQueries(d Dialect) queries {
	return queries{
		listUsers: `SELECT DISTINCT "user" FROM tm_daily_checkin ORDER BY "user"`,
		listCheckins: `SELECT "user", project, hours, "timestamp"
FROM tm_daily_checkin
WHERE "user" = ` + d.Placeholder(1) + `
ORDER BY "timestamp"`,
		hoursByProject: `SELECT project, COALESCE(SUM(hours), 0) AS total_hours
FROM tm_daily_checkin
GROUP BY project
ORDER BY project`,
		hoursByEmployee: `SELECT "user", COALESCE(SUM(hours), 0) AS total_hours
FROM tm_daily_checkin
GROUP BY "user"
ORDER BY "user"`,
		hoursByMonth: `SELECT ` + d.MonthExpr + ` AS month, COALESCE(SUM(hours), 0) AS total_hours
FROM tm_daily_checkin
GROUP BY month
ORDER BY month`,
	}
}

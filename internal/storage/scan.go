package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// numeric scans NUMERIC/REAL/INTEGER columns into a float64.
// Drivers disagree on the Go type they hand back for NUMERIC.
type numeric float64

func (n *numeric) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = 0
	case float64:
		*n = numeric(v)
	case float32:
		*n = numeric(v)
	case int64:
		*n = numeric(v)
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("numeric: unsupported type %T", src)
	}
	return nil
}

func (n *numeric) parse(s string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("numeric: %w", err)
	}
	*n = numeric(f)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp scans date/time columns, including the text form SQLite
// returns for expressions such as strftime.
type timestamp time.Time

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timestamp(time.Time{})
		return nil
	case time.Time:
		*t = timestamp(v)
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("timestamp: unsupported type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp(parsed)
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}

func (t timestamp) Time() time.Time { return time.Time(t) }

const monthLayout = "2006-01"

// month scans the YYYY-MM text produced by Dialect.MonthExpr. Valid is false
// for the group of rows whose timestamp is NULL.
type month struct {
	t     time.Time
	Valid bool
}

func (m *month) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*m = month{}
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("month: unsupported type %T", src)
	}
	parsed, err := time.Parse(monthLayout, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("month: cannot parse %q", s)
	}
	*m = month{t: parsed, Valid: true}
	return nil
}

func (m month) Time() time.Time { return m.t }

// nullText reads a nullable TEXT column; NULL becomes "".
func nullText(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

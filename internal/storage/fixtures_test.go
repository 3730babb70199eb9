package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"checkins/internal/core"
)

// The application never creates tm_daily_checkin; tests build it from these files.
//
//go:embed testdata/migrations/*.sql
var fixtureFS embed.FS

const seedTimeLayout = "2006-01-02 15:04:05"

// newSQLiteFixture creates a SQLite file with the check-in schema and rows,
// and returns a read-only repository over it.
func newSQLiteFixture(t *testing.T, rows []core.CheckIn) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkins.db")

	applySQLiteSchema(t, path)
	seedSQLite(t, path, rows)
	return openReadOnly(t, path)
}

func openReadOnly(t *testing.T, path string) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), SQLite, "file:"+path+"?mode=ro", DefaultPoolConfig())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// execSQLite runs raw statements, for rows core.CheckIn cannot express.
func execSQLite(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed database: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func applySQLiteSchema(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open migration database: %v", err)
	}
	driver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		t.Fatalf("create sqlite driver: %v", err)
	}
	src, err := iofs.New(fixtureFS, "testdata/migrations")
	if err != nil {
		t.Fatalf("create iofs source: %v", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("run migrations: %v", err)
	}
}

func seedSQLite(t *testing.T, path string, rows []core.CheckIn) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed database: %v", err)
	}
	defer db.Close()

	loaded := time.Now().UTC().Format(seedTimeLayout)
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO tm_daily_checkin ("user", project, hours, "timestamp", load_date_performed) VALUES (?, ?, ?, ?, ?)`,
			r.User, r.Project, r.Hours, r.Timestamp.UTC().Format(seedTimeLayout), loaded)
		if err != nil {
			t.Fatalf("seed row %+v: %v", r, err)
		}
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

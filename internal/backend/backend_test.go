package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"checkins/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "/tmp/c.db"}
	bc, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if bc.Type != SQLiteBackend || bc.DSN != "file:/tmp/c.db?mode=ro" {
		t.Errorf("unexpected backend config %+v", bc)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil || !strings.Contains(err.Error(), "valid: postgres, sqlite") {
		t.Errorf("expected error listing valid backends, got %v", err)
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Errorf("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"valid", Config{Type: PostgresBackend, DSN: "postgres://x"}, ""},
		{"unknown type", Config{Type: "memory", DSN: "x"}, "invalid backend type"},
		{"missing dsn", Config{Type: SQLiteBackend}, "connection string is required"},
		{"negative pool", Config{Type: SQLiteBackend, DSN: "x", MaxOpenConns: -1}, "pool sizes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackendSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkins.db")
	f := NewFactory(nil)

	res, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend, DSN: path})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if err := res.Backend.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if _, err := res.Backend.ListUsers(context.Background()); err == nil {
		t.Errorf("expected error listing users without the check-in table")
	}
}

func TestCreateBackendUnreachableReadOnlyFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	f := NewFactory(nil)
	if _, err := f.CreateBackend(context.Background(), Config{Type: SQLiteBackend, DSN: "file:" + missing + "?mode=ro"}); err == nil {
		t.Fatalf("expected error opening a missing read-only database")
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 2 || got[0] != "postgres" || got[1] != "sqlite" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

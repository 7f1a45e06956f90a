package factory

import (
	"path/filepath"
	"testing"
)

func TestNewSinkFromDSN_SQLite(t *testing.T) {
	cases := []string{
		"sqlite://:memory:",
		":memory:",
		filepath.Join(t.TempDir(), "history.db"),
	}
	for _, dsn := range cases {
		sink, err := NewSinkFromDSN(dsn)
		if err != nil {
			t.Fatalf("dsn %q: %v", dsn, err)
		}
		if sink == nil {
			t.Fatalf("dsn %q: nil sink", dsn)
		}
		if c, ok := sink.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

func TestNewSinkFromDSN_Errors(t *testing.T) {
	if _, err := NewSinkFromDSN(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
	if _, err := NewSinkFromDSN("redis://localhost:6379"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

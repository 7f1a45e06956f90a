package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harvestd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
data_file = "/var/lib/harvestd/farms.json"
catchup_limit = 50
listen = "0.0.0.0:9000"
base_path = "/harvest"

[chat]
feed_channel = "feed-chan"
updates_channel = "updates-chan"
status_channel = "status-chan"
feed_author = "intentgames"
ping_role = "farmers"
notify_webhook = "http://bridge:8080/notify"
board_webhook = "http://bridge:8080/board"

[log]
level = "debug"
file = "/var/log/harvestd.log"

[history]
dsns = ["sqlite:///var/lib/harvestd/history.db"]

[[farms]]
name = "Wheat Farm"
coords = "(123, 64, -456)"
total_output = "5 cs wheat"
runtime_minutes = 30
regrow_hours = 2.0

[[farms]]
name = "Corn Farm"
runtime_minutes = 15
regrow_hours = 0.5
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.DataFile != "/var/lib/harvestd/farms.json" {
		t.Fatalf("data_file = %q", fc.DataFile)
	}
	if fc.CatchupLimit != 50 {
		t.Fatalf("catchup_limit = %d", fc.CatchupLimit)
	}
	if fc.Chat.FeedAuthor != "intentgames" || fc.Chat.PingRole != "farmers" {
		t.Fatalf("chat config wrong: %+v", fc.Chat)
	}
	if fc.Log == nil || fc.Log.Level != "debug" {
		t.Fatalf("log config wrong: %+v", fc.Log)
	}
	if fc.History == nil || len(fc.History.DSNs) != 1 {
		t.Fatalf("history config wrong: %+v", fc.History)
	}
	if len(fc.Farms) != 2 {
		t.Fatalf("expected 2 seed farms, got %d", len(fc.Farms))
	}

	rec := fc.Farms[0].Record()
	if rec.Runtime != 30*time.Minute {
		t.Fatalf("runtime = %v", rec.Runtime)
	}
	if rec.Regrow != 2*time.Hour {
		t.Fatalf("regrow = %v", rec.Regrow)
	}
	if rec.NextReady != nil {
		t.Fatalf("seed farm must start with no ready time")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
[chat]
feed_channel = "feed"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.DataFile != "farms.json" {
		t.Fatalf("default data_file = %q", fc.DataFile)
	}
	if fc.CatchupLimit != 200 {
		t.Fatalf("default catchup_limit = %d", fc.CatchupLimit)
	}
	if fc.Listen != "127.0.0.1:8511" || fc.BasePath != "/api" {
		t.Fatalf("default listen/base = %q %q", fc.Listen, fc.BasePath)
	}
	if fc.Chat.PingRole != "internal" {
		t.Fatalf("default ping_role = %q", fc.Chat.PingRole)
	}
}

func TestLoadRejectsDuplicateSeeds(t *testing.T) {
	path := writeConfig(t, `
[[farms]]
name = "Wheat Farm"
[[farms]]
name = " wheat   farm "
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected duplicate seed farm error")
	}
}

func TestApplyEnvFiles(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), "bridge.env")
	if err := os.WriteFile(envPath, []byte("# bridge settings\nHARVESTD_TEST_TOKEN = sekret\n\nHARVESTD_TEST_KEEP=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HARVESTD_TEST_KEEP", "operator")
	defer func() { _ = os.Unsetenv("HARVESTD_TEST_TOKEN") }()

	fc := &FileConfig{EnvFiles: []string{envPath}}
	if err := fc.ApplyEnvFiles(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv("HARVESTD_TEST_TOKEN"); got != "sekret" {
		t.Fatalf("token = %q", got)
	}
	// operator env wins over file contents
	if got := os.Getenv("HARVESTD_TEST_KEEP"); got != "operator" {
		t.Fatalf("keep = %q", got)
	}
}

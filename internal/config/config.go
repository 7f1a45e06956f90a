package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/harvestd/internal/farm"
	"github.com/loykin/harvestd/internal/logger"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	DataFile     string         `toml:"data_file" mapstructure:"data_file"`
	CatchupLimit int            `toml:"catchup_limit" mapstructure:"catchup_limit"`
	Listen       string         `toml:"listen" mapstructure:"listen"`
	BasePath     string         `toml:"base_path" mapstructure:"base_path"`
	EnvFiles     []string       `toml:"env_files" mapstructure:"env_files"`
	Chat         ChatConfig     `toml:"chat" mapstructure:"chat"`
	Log          *logger.Config `toml:"log" mapstructure:"log"`
	History      *HistoryConfig `toml:"history" mapstructure:"history"`
	Farms        []FarmConfig   `toml:"farms" mapstructure:"farms"`
}

// ChatConfig names the channels and identities on the chat side.
// FeedAuthor is the relay bot whose lines carry lifecycle events; everything
// from other authors in the feed channel is ignored before parsing.
type ChatConfig struct {
	FeedChannel    string `toml:"feed_channel" mapstructure:"feed_channel"`
	UpdatesChannel string `toml:"updates_channel" mapstructure:"updates_channel"`
	StatusChannel  string `toml:"status_channel" mapstructure:"status_channel"`
	FeedAuthor     string `toml:"feed_author" mapstructure:"feed_author"`
	PingRole       string `toml:"ping_role" mapstructure:"ping_role"`
	NotifyWebhook  string `toml:"notify_webhook" mapstructure:"notify_webhook"`
	BoardWebhook   string `toml:"board_webhook" mapstructure:"board_webhook"`
}

// HistoryConfig lists external sinks that receive lifecycle events.
type HistoryConfig struct {
	DSNs []string `toml:"dsns" mapstructure:"dsns"`
}

// FarmConfig is a seed farm definition, applied only when the snapshot
// starts out empty (first-run convenience).
type FarmConfig struct {
	Name           string  `toml:"name" mapstructure:"name"`
	Coords         string  `toml:"coords" mapstructure:"coords"`
	Output         string  `toml:"total_output" mapstructure:"total_output"`
	RuntimeMinutes int     `toml:"runtime_minutes" mapstructure:"runtime_minutes"`
	RegrowHours    float64 `toml:"regrow_hours" mapstructure:"regrow_hours"`
}

// Record converts a seed definition to a registry record.
func (f FarmConfig) Record() farm.Record {
	return farm.Record{
		Name:    strings.TrimSpace(f.Name),
		Coords:  strings.TrimSpace(f.Coords),
		Output:  strings.TrimSpace(f.Output),
		Runtime: time.Duration(f.RuntimeMinutes) * time.Minute,
		Regrow:  time.Duration(float64(time.Hour) * f.RegrowHours),
		Status:  farm.StatusUnknown,
	}
}

// Load parses the TOML config file and applies defaults.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	fc.applyDefaults()
	if err := fc.validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) applyDefaults() {
	if fc.DataFile == "" {
		fc.DataFile = "farms.json"
	}
	if fc.CatchupLimit <= 0 {
		fc.CatchupLimit = 200
	}
	if fc.Listen == "" {
		fc.Listen = "127.0.0.1:8511"
	}
	if fc.BasePath == "" {
		fc.BasePath = "/api"
	}
	if fc.Chat.PingRole == "" {
		fc.Chat.PingRole = "internal"
	}
}

func (fc *FileConfig) validate() error {
	seen := make(map[string]struct{}, len(fc.Farms))
	for _, f := range fc.Farms {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("seed farm requires a name")
		}
		key := farm.NormalizeName(f.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate seed farm %q", f.Name)
		}
		seen[key] = struct{}{}
		if f.RuntimeMinutes < 0 || f.RegrowHours < 0 {
			return fmt.Errorf("seed farm %q has negative durations", f.Name)
		}
	}
	return nil
}

// ApplyEnvFiles loads KEY=VALUE pairs from each configured env file into the
// process environment. Existing variables are not overridden, so operator
// environment always wins over file contents.
func (fc *FileConfig) ApplyEnvFiles() error {
	for _, p := range fc.EnvFiles {
		pairs, err := loadEnvFile(p)
		if err != nil {
			return err
		}
		for k, v := range pairs {
			if _, present := os.LookupEnv(k); !present {
				if err := os.Setenv(k, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// loadEnvFile parses a simple .env file: KEY=VALUE lines, '#' comments.
func loadEnvFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '='); i >= 0 {
			k := strings.TrimSpace(line[:i])
			v := strings.TrimSpace(line[i+1:])
			m[k] = v
		}
	}
	return m, nil
}

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters (lumberjack semantics).
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the daemon's logging destination. Console output always
// goes to stderr; File additionally tees records to a rotating log file.
type Config struct {
	Level      string `toml:"level" mapstructure:"level"` // debug|info|warn|error
	File       string `toml:"file" mapstructure:"file"`   // optional rotating log file
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// ParseLevel maps a config string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds the daemon logger: colored text on stderr, plus a rotating file
// writer when Config.File is set.
func New(c Config) *slog.Logger {
	level := ParseLevel(c.Level)
	var w io.Writer = os.Stderr
	if c.File != "" {
		fileW := &lj.Logger{
			Filename:   c.File,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
		w = io.MultiWriter(os.Stderr, fileW)
	}
	h := NewColorTextHandler(w, &slog.HandlerOptions{Level: level}, true)
	return slog.New(h)
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

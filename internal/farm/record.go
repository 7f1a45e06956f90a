package farm

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Status is the lifecycle state of a tracked farm.
type Status string

const (
	StatusUnknown Status = "Unknown"
	StatusFarming Status = "Currently being farmed"
	StatusReady   Status = "Ready to be farmed"
)

// ParseStatus maps a persisted status string back to a known Status.
// Unrecognized values degrade to StatusUnknown so old files always load.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusFarming:
		return StatusFarming
	case StatusReady:
		return StatusReady
	default:
		return StatusUnknown
	}
}

var (
	ErrNotFound  = errors.New("farm not found")
	ErrDuplicate = errors.New("farm already exists")
)

// Record describes one tracked farm plot.
// Name is the unique key (case-insensitive, whitespace-normalized for lookup;
// the display form is preserved as given).
// NextReady is set only while a readiness timer is armed for this farm and
// is always cleared together with timer cancellation or firing.
type Record struct {
	Name      string        `json:"name"`
	Coords    string        `json:"coords"`
	Output    string        `json:"total_output"`
	Runtime   time.Duration `json:"runtime"`     // expected active-harvest duration
	Regrow    time.Duration `json:"regrow_time"` // time from finish to next readiness
	NextReady *time.Time    `json:"next_ready"`  // UTC; nil when no timer is armed
	Status    Status        `json:"status"`
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeName lowercases and collapses internal whitespace so that
// "  Wheat   Farm " and "wheat farm" compare equal.
func NormalizeName(name string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(strings.ToLower(name)), " ")
}

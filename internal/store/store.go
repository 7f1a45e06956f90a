// Package store persists the full tracking state as one JSON document:
// the processing checkpoint plus an ordered list of farm records. Writes are
// whole-file atomic (temp file + rename) so a crash never leaves a partial
// snapshot observable on the next load.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/harvestd/internal/farm"
)

// Snapshot is the canonical in-memory shape of everything persisted.
// LastMessageID is the chat-feed checkpoint, advanced only after an event has
// been fully applied; StatusMessageID identifies the mutable status-board
// message. Both are empty when absent.
type Snapshot struct {
	LastMessageID   string
	StatusMessageID string
	Farms           []farm.Record
}

// fileFarm is the on-disk representation of one farm: durations as integer
// seconds, timestamps as RFC 3339 UTC, absence as null. All representation
// normalization happens here, exactly once, at load/save time.
type fileFarm struct {
	Name      string  `json:"name"`
	Coords    string  `json:"coords"`
	Output    string  `json:"total_output"`
	Runtime   int64   `json:"runtime"`
	Regrow    int64   `json:"regrow_time"`
	NextReady *string `json:"next_ready"`
	Status    string  `json:"status"`
}

type fileSnapshot struct {
	LastMessageID   *string    `json:"last_message_id"`
	StatusMessageID *string    `json:"status_message_id"`
	Farms           []fileFarm `json:"farms"`
}

// Store reads and writes the snapshot file.
type Store struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string { return s.path }

// Load reads the snapshot. A missing or corrupt file yields a default-empty
// snapshot and a nil error so the process always starts; corruption is logged
// and swallowed. A legacy bare list (no envelope) is accepted and wrapped.
func (s *Store) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot unreadable, starting empty", "path", s.path, "error", err)
		}
		return Snapshot{}, nil
	}

	var fs fileSnapshot
	if err := json.Unmarshal(data, &fs); err != nil {
		// legacy format: a bare array of farm objects
		var legacy []fileFarm
		if lerr := json.Unmarshal(data, &legacy); lerr != nil {
			s.logger.Warn("snapshot corrupt, starting empty", "path", s.path, "error", err)
			return Snapshot{}, nil
		}
		fs = fileSnapshot{Farms: legacy}
	}

	snap := Snapshot{}
	if fs.LastMessageID != nil {
		snap.LastMessageID = *fs.LastMessageID
	}
	if fs.StatusMessageID != nil {
		snap.StatusMessageID = *fs.StatusMessageID
	}
	snap.Farms = make([]farm.Record, 0, len(fs.Farms))
	for _, ff := range fs.Farms {
		rec := farm.Record{
			Name:    ff.Name,
			Coords:  ff.Coords,
			Output:  ff.Output,
			Runtime: time.Duration(ff.Runtime) * time.Second,
			Regrow:  time.Duration(ff.Regrow) * time.Second,
			Status:  farm.ParseStatus(ff.Status),
		}
		if ff.NextReady != nil && *ff.NextReady != "" {
			ts, terr := time.Parse(time.RFC3339, *ff.NextReady)
			if terr != nil {
				s.logger.Warn("discarding unparseable next_ready", "farm", ff.Name, "value", *ff.NextReady)
			} else {
				t := ts.UTC()
				rec.NextReady = &t
			}
		}
		snap.Farms = append(snap.Farms, rec)
	}
	return snap, nil
}

// Save serializes snap and atomically replaces the snapshot file.
func (s *Store) Save(snap Snapshot) error {
	fs := fileSnapshot{Farms: make([]fileFarm, 0, len(snap.Farms))}
	if snap.LastMessageID != "" {
		fs.LastMessageID = &snap.LastMessageID
	}
	if snap.StatusMessageID != "" {
		fs.StatusMessageID = &snap.StatusMessageID
	}
	for _, rec := range snap.Farms {
		ff := fileFarm{
			Name:    rec.Name,
			Coords:  rec.Coords,
			Output:  rec.Output,
			Runtime: int64(rec.Runtime / time.Second),
			Regrow:  int64(rec.Regrow / time.Second),
			Status:  string(rec.Status),
		}
		if rec.NextReady != nil {
			v := rec.NextReady.UTC().Format(time.RFC3339)
			ff.NextReady = &v
		}
		fs.Farms = append(fs.Farms, ff)
	}

	data, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".harvestd-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/loykin/harvestd/internal/farm"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "farms.json"), nil)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.LastMessageID != "" || snap.StatusMessageID != "" || len(snap.Farms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestLoadCorruptFileIsEmptyNotFatal(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("corrupt snapshot must not be fatal: %v", err)
	}
	if len(snap.Farms) != 0 {
		t.Fatalf("expected empty farms, got %d", len(snap.Farms))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	ready := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	want := Snapshot{
		LastMessageID:   "msg-42",
		StatusMessageID: "board-7",
		Farms: []farm.Record{
			{
				Name:      "Wheat Farm",
				Coords:    "(123, 64, -456)",
				Output:    "5 cs wheat",
				Runtime:   30 * time.Minute,
				Regrow:    2 * time.Hour,
				NextReady: &ready,
				Status:    farm.StatusFarming,
			},
			{
				Name:    "Corn Farm",
				Runtime: 15 * time.Minute,
				Regrow:  time.Hour,
				Status:  farm.StatusReady,
			},
		},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}

	// save(load()) is a fixed point
	if err := s.Save(got); err != nil {
		t.Fatalf("second save: %v", err)
	}
	again, err := s.Load()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("save(load()) not a fixed point")
	}
}

func TestLoadLegacyBareList(t *testing.T) {
	s := tempStore(t)
	legacy := `[
	  {"name":"Wheat Farm","coords":"(1,2,3)","total_output":"5 cs","runtime":1800,"regrow_time":7200,"next_ready":null,"status":"Currently being farmed"}
	]`
	if err := os.WriteFile(s.Path(), []byte(legacy), 0o600); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.LastMessageID != "" {
		t.Fatalf("legacy file has no checkpoint, got %q", snap.LastMessageID)
	}
	if len(snap.Farms) != 1 {
		t.Fatalf("expected 1 farm, got %d", len(snap.Farms))
	}
	f := snap.Farms[0]
	if f.Runtime != 30*time.Minute || f.Regrow != 2*time.Hour {
		t.Fatalf("durations not converted from seconds: %v %v", f.Runtime, f.Regrow)
	}
	if f.NextReady != nil {
		t.Fatalf("null next_ready must stay nil")
	}
	if f.Status != farm.StatusFarming {
		t.Fatalf("status = %q", f.Status)
	}
}

func TestDurationsStoredAsSeconds(t *testing.T) {
	s := tempStore(t)
	snap := Snapshot{Farms: []farm.Record{{Name: "Wheat", Runtime: 90 * time.Second, Regrow: time.Hour}}}
	if err := s.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var raw struct {
		Farms []map[string]any `json:"farms"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if got := raw.Farms[0]["runtime"]; got != float64(90) {
		t.Fatalf("runtime stored as %v, want 90", got)
	}
	if got := raw.Farms[0]["regrow_time"]; got != float64(3600) {
		t.Fatalf("regrow_time stored as %v, want 3600", got)
	}
	if v, present := raw.Farms[0]["next_ready"]; !present || v != nil {
		t.Fatalf("absent next_ready must serialize as explicit null, got %v (present=%v)", v, present)
	}
}

func TestUnknownStatusDegradesGracefully(t *testing.T) {
	s := tempStore(t)
	doc := `{"last_message_id":null,"status_message_id":null,"farms":[{"name":"X","runtime":60,"regrow_time":60,"next_ready":"not-a-time","status":"Harvest frenzy"}]}`
	if err := os.WriteFile(s.Path(), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Farms[0].Status != farm.StatusUnknown {
		t.Fatalf("unknown status should normalize to Unknown, got %q", snap.Farms[0].Status)
	}
	if snap.Farms[0].NextReady != nil {
		t.Fatalf("unparseable next_ready should be dropped")
	}
}

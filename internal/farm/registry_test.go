package farm

import (
	"errors"
	"testing"
	"time"
)

func TestRegistryAddDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(Record{Name: "Wheat Farm", Status: StatusUnknown}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(Record{Name: "  wheat   farm "}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 farm, got %d", r.Len())
	}
}

func TestRegistryGetNormalized(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Record{Name: "Wheat Farm"})
	rec, err := r.Get("  wheat farm ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Name != "Wheat Farm" {
		t.Fatalf("display name not preserved: %q", rec.Name)
	}
	if _, err := r.Get("corn"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Record{Name: "Wheat Farm"})
	_ = r.Add(Record{Name: "Corn Farm"})

	// exact normalized match wins even though "wheat farm" is also a substring
	if got := r.Resolve("  wheat farm "); len(got) != 1 || got[0].Name != "Wheat Farm" {
		t.Fatalf("exact resolve failed: %+v", got)
	}
	// substring against multiple names is ambiguous: both returned
	if got := r.Resolve("farm"); len(got) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "farm", len(got))
	}
	if got := r.Resolve("pumpkin"); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
	if got := r.Resolve("   "); got != nil {
		t.Fatalf("blank phrase should resolve to nothing")
	}
}

func TestRegistryUpdateRemove(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Record{Name: "Wheat Farm", Runtime: 30 * time.Minute})
	err := r.Update("wheat farm", func(rec Record) Record {
		rec.Runtime = 15 * time.Minute
		return rec
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, _ := r.Get("Wheat Farm")
	if rec.Runtime != 15*time.Minute {
		t.Fatalf("runtime not updated: %v", rec.Runtime)
	}
	if err := r.Remove("Wheat Farm"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := r.Remove("Wheat Farm"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestRegistryNamesBounded(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(Record{Name: "Wheat Farm"})
	_ = r.Add(Record{Name: "Corn Farm"})
	_ = r.Add(Record{Name: "Melon Patch"})

	if got := r.Names("farm", 0); len(got) != 2 {
		t.Fatalf("expected 2 names, got %v", got)
	}
	if got := r.Names("", 2); len(got) != 2 {
		t.Fatalf("expected bounded 2 names, got %v", got)
	}
	if got := r.Names("", 0); len(got) != 3 {
		t.Fatalf("expected all names, got %v", got)
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"  Wheat   Farm ": "wheat farm",
		"CORN":            "corn",
		"\tA  B\nC":       "a b c",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

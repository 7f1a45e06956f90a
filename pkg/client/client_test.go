package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientRoundTrips(t *testing.T) {
	var gotAdd FarmRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/farms", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotAdd); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "" {
			_ = json.NewEncoder(w).Encode(FarmStatus{Name: "Wheat Farm", Runtime: 30 * time.Minute, Status: "Ready to be farmed"})
			return
		}
		_ = json.NewEncoder(w).Encode([]FarmStatus{{Name: "Wheat Farm"}})
	})
	mux.HandleFunc("GET /api/farms", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode([]string{"Wheat Farm"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	ctx := context.Background()

	if !c.IsReachable(ctx) {
		t.Fatalf("daemon not reachable")
	}
	rt := 30
	if err := c.AddFarm(ctx, FarmRequest{Name: "Wheat Farm", RuntimeMinutes: &rt}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if gotAdd.Name != "Wheat Farm" || gotAdd.RuntimeMinutes == nil || *gotAdd.RuntimeMinutes != 30 {
		t.Fatalf("server saw %+v", gotAdd)
	}
	st, err := c.Status(ctx, "wheat")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Runtime != 30*time.Minute {
		t.Fatalf("runtime: %v", st.Runtime)
	}
	all, err := c.Statuses(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("statuses: %v %v", all, err)
	}
	names, err := c.ListNames(ctx, "wh", 5)
	if err != nil || len(names) != 1 {
		t.Fatalf("list: %v %v", names, err)
	}
}

func TestClientErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "farm already exists"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api"})
	err := c.AddFarm(context.Background(), FarmRequest{Name: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if want := "API error: farm already exists"; err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestClientUnreachable(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1/api", Timeout: 200 * time.Millisecond})
	if c.IsReachable(context.Background()) {
		t.Fatalf("unreachable daemon reported reachable")
	}
}

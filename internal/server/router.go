package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/harvestd/internal/farm"
	"github.com/loykin/harvestd/internal/feed"
	"github.com/loykin/harvestd/internal/metrics"
	"github.com/loykin/harvestd/internal/track"
)

// Router provides embeddable HTTP handlers for the farm tracker.
// Endpoints:
//   POST {basePath}/farms        body: farm JSON (minutes/hours durations)
//   POST {basePath}/farms/edit   query: name=...  body: partial farm JSON
//   POST {basePath}/farms/remove query: name=...
//   GET  {basePath}/status       query: name=... (single) or none (all)
//   GET  {basePath}/farms        query: filter=...&limit=N (names only)
//   POST {basePath}/ingest       body: feed message JSON
//   GET  {basePath}/metrics      Prometheus exposition
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	tracker  *track.Tracker
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/farms, /api/status, /api/ingest.
func NewRouter(tr *track.Tracker, basePath string) *Router {
	return &Router{tracker: tr, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/farms", r.handleAdd)
	group.POST("/farms/edit", r.handleEdit)
	group.POST("/farms/remove", r.handleRemove)
	group.GET("/farms", r.handleList)
	group.GET("/status", r.handleStatus)
	group.POST("/ingest", r.handleIngest)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// Callers shut it down via http.Server's Shutdown or Close.
func NewServer(addr, basePath string, tr *track.Tracker) (*http.Server, error) {
	r := NewRouter(tr, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

// farmReq is the wire shape for add/edit. Durations travel as the units
// operators actually use: runtime in minutes, regrow in hours.
type farmReq struct {
	Name           string   `json:"name"`
	Coords         *string  `json:"coords"`
	Output         *string  `json:"output"`
	RuntimeMinutes *int     `json:"runtime_minutes"`
	RegrowHours    *float64 `json:"regrow_hours"`
}

func (r *Router) handleAdd(c *gin.Context) {
	var req farmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name required"})
		return
	}
	if req.RuntimeMinutes == nil || req.RegrowHours == nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "runtime_minutes and regrow_hours required"})
		return
	}
	rec := farm.Record{
		Name:    req.Name,
		Runtime: time.Duration(*req.RuntimeMinutes) * time.Minute,
		Regrow:  time.Duration(*req.RegrowHours * float64(time.Hour)),
	}
	if req.Coords != nil {
		rec.Coords = *req.Coords
	}
	if req.Output != nil {
		rec.Output = *req.Output
	}
	if err := r.tracker.AddFarm(c.Request.Context(), rec); err != nil {
		code := http.StatusBadRequest
		if err == farm.ErrDuplicate {
			code = http.StatusConflict
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleEdit(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	var req farmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	p := track.Patch{Coords: req.Coords, Output: req.Output}
	if req.RuntimeMinutes != nil {
		d := time.Duration(*req.RuntimeMinutes) * time.Minute
		p.Runtime = &d
	}
	if req.RegrowHours != nil {
		d := time.Duration(*req.RegrowHours * float64(time.Hour))
		p.Regrow = &d
	}
	rec, err := r.tracker.EditFarm(c.Request.Context(), name, p)
	if err != nil {
		code := http.StatusBadRequest
		if err == farm.ErrNotFound {
			code = http.StatusNotFound
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, rec)
}

func (r *Router) handleRemove(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if err := r.tracker.RemoveFarm(c.Request.Context(), name); err != nil {
		code := http.StatusBadRequest
		if err == farm.ErrNotFound {
			code = http.StatusNotFound
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleList(c *gin.Context) {
	limit := 25
	if s := c.Query("limit"); s != "" {
		if n, err := parsePositive(s); err == nil {
			limit = n
		}
	}
	writeJSON(c, http.StatusOK, r.tracker.ListNames(c.Query("filter"), limit))
}

func (r *Router) handleStatus(c *gin.Context) {
	if name := c.Query("name"); name != "" {
		rec, err := r.tracker.GetFarm(name)
		if err != nil {
			writeJSON(c, http.StatusNotFound, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusOK, rec)
		return
	}
	writeJSON(c, http.StatusOK, r.tracker.Statuses())
}

// handleIngest feeds one chat message into the tracker. Bridges that cannot
// implement the streaming Source interface post here instead. Filtered or
// unparseable messages still return 200; acceptance is not a delivery receipt.
func (r *Router) handleIngest(c *gin.Context) {
	var msg feed.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if msg.ID == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "id required"})
		return
	}
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	r.tracker.HandleMessage(c.Request.Context(), msg)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

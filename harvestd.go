package harvestd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/loykin/harvestd/internal/config"
	"github.com/loykin/harvestd/internal/farm"
	"github.com/loykin/harvestd/internal/feed"
	"github.com/loykin/harvestd/internal/history"
	"github.com/loykin/harvestd/internal/history/factory"
	"github.com/loykin/harvestd/internal/logger"
	"github.com/loykin/harvestd/internal/metrics"
	"github.com/loykin/harvestd/internal/sched"
	iapi "github.com/loykin/harvestd/internal/server"
	"github.com/loykin/harvestd/internal/store"
	"github.com/loykin/harvestd/internal/track"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Record = farm.Record

type Status = farm.Status

type Message = feed.Message

type Event = feed.Event

type Source = feed.Source

type Notifier = feed.Notifier

type Board = feed.Board

type Patch = track.Patch

type ChatConfig = cfg.ChatConfig

type Config = cfg.FileConfig

type HistorySink = history.Sink

// Tracker is a thin facade over internal/track.Tracker.
// It provides a stable public API for embedding.

type Tracker struct{ inner *track.Tracker }

// Options configures an embedded Tracker. DataFile is the snapshot path;
// everything else is optional.
type Options struct {
	DataFile string
	Chat     ChatConfig
	Notifier Notifier
	Board    Board
	Sinks    []HistorySink
	Logger   *slog.Logger
	Catchup  int
}

func New(opts Options) *Tracker {
	return &Tracker{inner: track.New(track.Options{
		Registry:  farm.NewRegistry(),
		Scheduler: sched.New(),
		Store:     store.New(opts.DataFile, opts.Logger),
		Notifier:  opts.Notifier,
		Board:     opts.Board,
		Sinks:     opts.Sinks,
		Logger:    opts.Logger,
		Chat:      opts.Chat,
		Catchup:   opts.Catchup,
	})}
}

// Start loads the snapshot, seeds the registry on first run, and restores
// timers for farms that were mid-cycle when the previous process exited.
func (t *Tracker) Start(ctx context.Context, seeds []Record) error {
	if err := t.inner.Load(); err != nil {
		return err
	}
	if err := t.inner.Seed(seeds); err != nil {
		return err
	}
	return t.inner.Reconcile(ctx)
}

func (t *Tracker) CatchUp(ctx context.Context, src Source) error { return t.inner.CatchUp(ctx, src) }
func (t *Tracker) Run(ctx context.Context, src Source) error     { return t.inner.Run(ctx, src) }
func (t *Tracker) HandleMessage(ctx context.Context, m Message)  { t.inner.HandleMessage(ctx, m) }
func (t *Tracker) Stop()                                         { t.inner.Stop() }

func (t *Tracker) AddFarm(ctx context.Context, r Record) error { return t.inner.AddFarm(ctx, r) }
func (t *Tracker) EditFarm(ctx context.Context, name string, p Patch) (Record, error) {
	return t.inner.EditFarm(ctx, name, p)
}
func (t *Tracker) RemoveFarm(ctx context.Context, name string) error {
	return t.inner.RemoveFarm(ctx, name)
}
func (t *Tracker) GetFarm(name string) (Record, error)      { return t.inner.GetFarm(name) }
func (t *Tracker) ListNames(filter string, n int) []string  { return t.inner.ListNames(filter, n) }
func (t *Tracker) Statuses() []Record                       { return t.inner.Statuses() }
func (t *Tracker) Checkpoint() string                       { return t.inner.Checkpoint() }

func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// NewLogger builds the process logger from the optional [log] config section.
func NewLogger(c *Config) *slog.Logger {
	if c != nil && c.Log != nil {
		return logger.New(*c.Log)
	}
	return logger.New(logger.Config{})
}

// NewHistorySink resolves a DSN (sqlite path, postgres://, clickhouse://)
// into a history sink.
func NewHistorySink(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

// NewWebhookNotifier posts notification lines to the given HTTP endpoint.
func NewWebhookNotifier(url string) Notifier { return feed.NewWebhookNotifier(url) }

// NewWebhookBoard maintains the status-board message through the given HTTP endpoint.
func NewWebhookBoard(url string) Board { return feed.NewWebhookBoard(url) }

// NewHTTPServer starts an HTTP server exposing the internal API using the given tracker.
func NewHTTPServer(addr, basePath string, t *Tracker) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, t.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}

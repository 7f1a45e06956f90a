package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loykin/harvestd"
	"github.com/spf13/cobra"
)

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the harvestd daemon",
		Long: `Start the harvestd daemon. All configuration is loaded from the TOML
config file.

Examples:
  harvestd serve                    # Start daemon (uses --config)
  harvestd serve harvestd.toml      # Start with specific config file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := serveFlags.ConfigPath
			if configPath == "" {
				configPath = globalFlags.ConfigPath
			}
			if len(args) > 0 {
				configPath = args[0]
			}
			return runServe(configPath)
		},
	}
	return cmd
}

func runServe(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config file required for serve command. Use --config=harvestd.toml or provide as argument")
	}

	cfg, err := harvestd.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.ApplyEnvFiles(); err != nil {
		return fmt.Errorf("error applying env files: %w", err)
	}

	logger := harvestd.NewLogger(cfg)

	if err := harvestd.RegisterMetricsDefault(); err != nil {
		logger.Warn("failed to register metrics", "error", err)
	}

	var sinks []harvestd.HistorySink
	if cfg.History != nil {
		for _, dsn := range cfg.History.DSNs {
			sink, err := harvestd.NewHistorySink(dsn)
			if err != nil {
				return fmt.Errorf("history sink %s: %w", dsn, err)
			}
			sinks = append(sinks, sink)
		}
	}
	defer func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}()

	var notifier harvestd.Notifier
	if cfg.Chat.NotifyWebhook != "" {
		notifier = harvestd.NewWebhookNotifier(cfg.Chat.NotifyWebhook)
	}
	var board harvestd.Board
	if cfg.Chat.BoardWebhook != "" {
		board = harvestd.NewWebhookBoard(cfg.Chat.BoardWebhook)
	}

	tracker := harvestd.New(harvestd.Options{
		DataFile: cfg.DataFile,
		Chat:     cfg.Chat,
		Notifier: notifier,
		Board:    board,
		Sinks:    sinks,
		Logger:   logger,
		Catchup:  cfg.CatchupLimit,
	})
	defer tracker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seeds := make([]harvestd.Record, 0, len(cfg.Farms))
	for _, fc := range cfg.Farms {
		seeds = append(seeds, fc.Record())
	}
	if err := tracker.Start(ctx, seeds); err != nil {
		return fmt.Errorf("tracker start: %w", err)
	}

	server, err := harvestd.NewHTTPServer(cfg.Listen, cfg.BasePath, tracker)
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("harvestd serving", "listen", cfg.Listen, "base_path", cfg.BasePath,
		"farms", len(tracker.Statuses()), "history_sinks", len(sinks))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		_ = server.Close()
	}
	return nil
}

// createInitCommand writes a starter config file
func createInitCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists", out)
			}
			if err := os.WriteFile(out, []byte(sampleConfig), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "harvestd.toml", "output path")
	return cmd
}

const sampleConfig = `data_file = "farms.json"
catchup_limit = 200
listen = "127.0.0.1:8511"
base_path = "/api"

[chat]
feed_channel = "farm-feed"
updates_channel = "farm-updates"
status_channel = "farm-status"
feed_author = "Kira"
ping_role = "internal"
# notify_webhook = "http://127.0.0.1:9000/notify"
# board_webhook = "http://127.0.0.1:9000/board"

[log]
level = "info"
# file = "harvestd.log"

# [history]
# dsns = ["sqlite://harvestd_history.db"]

[[farms]]
name = "Wheat Farm"
coords = "120, -400"
total_output = "8 stacks"
runtime_minutes = 30
regrow_hours = 2.0
`

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vhnotify/vhnotify-go/internal/locale"
	"github.com/vhnotify/vhnotify-go/internal/safefile"
	"github.com/vhnotify/vhnotify-go/pkg/vhnotify"
	"github.com/vhnotify/vhnotify-go/pkg/vhnotify/event"
)

// maxReplayFile bounds the log size accepted by replay.
const maxReplayFile = 512 * 1024 * 1024

var (
	// replay flags
	replayFormat  string
	replayDeliver bool
	replayOffline bool
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Run a recorded server log through the notifier",
	Long: `Process a complete server log offline and print every notification it
would produce, followed by a summary. Nothing is delivered unless --deliver
is given.

Examples:
  # Human-readable output
  vhnotify replay valheim_server.log

  # JSON Lines, one notification per line
  vhnotify replay valheim_server.log --format jsonl | jq .type

  # Also send to the configured chat
  vhnotify replay valheim_server.log --deliver --config vhnotify.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFormat, "format", "pretty",
		"Output format: pretty, jsonl")
	replayCmd.Flags().BoolVar(&replayDeliver, "deliver", false,
		"Deliver messages to the configured sinks as well")
	replayCmd.Flags().BoolVar(&replayOffline, "offline", false,
		"Use cached display names only")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	if !validFormats[replayFormat] {
		return fmt.Errorf("unknown format: %s", replayFormat)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr())
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := locale.Load(cfg.Language)
	if err != nil {
		return err
	}

	data, err := safefile.ReadRegular(args[0], maxReplayFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	resolver, err := buildResolver(ctx, cfg, replayOffline, logger)
	if err != nil {
		return err
	}
	defer resolver.Close()

	out := cmd.OutOrStdout()
	var outErr error
	opts := []vhnotify.WatchOption{
		vhnotify.WithLogger(logger),
		vhnotify.WithResolver(resolver),
		vhnotify.WithRenderer(catalog),
		vhnotify.WithTimeout(cfg.Timeout),
		vhnotify.WithObserver(func(n event.Notification, msg string) {
			if err := OutputNotification(replayFormat, n, msg, out); err != nil && outErr == nil {
				outErr = err
			}
		}),
	}
	if replayDeliver {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		sink, closeSink, err := buildSink(cfg, out)
		if err != nil {
			return err
		}
		defer closeSink()
		opts = append(opts, vhnotify.WithSink(sink))
	}

	stats, err := vhnotify.Replay(ctx, bytes.NewReader(data), opts...)
	if err != nil {
		return err
	}
	if outErr != nil {
		return fmt.Errorf("output error: %w", outErr)
	}
	return printSummary(cmd.ErrOrStderr(), stats)
}

func printSummary(w io.Writer, stats vhnotify.ReplayStats) error {
	_, err := fmt.Fprintf(w, "processed %d lines, %d notifications, %d failures\n",
		stats.Lines, stats.Notifications, stats.Failures)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vhnotify/vhnotify-go/internal/locale"
	"github.com/vhnotify/vhnotify-go/pkg/vhnotify"
)

var (
	// watch flags
	logFile   string
	fromStart bool
	dryRun    bool
	poll      bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the server log and send notifications",
	Long: `Follow the Valheim server log in real time and deliver a message for
every recognized event to the configured chat.

The log file is taken from --log-file, the config file, the
VHNOTIFY_LOGFILE environment variable, or ./valheim_server.log.

Examples:
  # Follow the log using settings from a config file
  vhnotify watch --config /etc/vhnotify.yaml

  # Print messages instead of sending them
  vhnotify watch --log-file /srv/valheim/valheim_server.log --dry-run

  # Process the whole existing log first
  vhnotify watch --from-start

Without --from-start, players already online when watching begins are
unknown: their deaths are reported, but respawns and disconnects are not
attributed until they reconnect.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&logFile, "log-file", "f", "",
		"Valheim server log file or directory")
	watchCmd.Flags().BoolVar(&fromStart, "from-start", false,
		"Process existing log lines before following")
	watchCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print messages to stdout instead of delivering them")
	watchCmd.Flags().BoolVar(&poll, "poll", false,
		"Poll the log file instead of using filesystem events")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cmd.ErrOrStderr())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	cfg.ReplayFromStart = cfg.ReplayFromStart || fromStart
	cfg.DryRun = cfg.DryRun || dryRun
	cfg.Poll = cfg.Poll || poll
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := locale.Load(cfg.Language)
	if err != nil {
		return err
	}
	resolver, err := buildResolver(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer resolver.Close()

	sink, closeSink, err := buildSink(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeSink()

	opts := []vhnotify.WatchOption{
		vhnotify.WithLogFile(cfg.LogFile),
		vhnotify.WithLogger(logger),
		vhnotify.WithResolver(resolver),
		vhnotify.WithRenderer(catalog),
		vhnotify.WithSink(sink),
		vhnotify.WithTimeout(cfg.Timeout),
		vhnotify.WithPoll(cfg.Poll),
	}
	if cfg.ReplayFromStart {
		opts = append(opts, vhnotify.WithReplayFromStart())
	}

	watcher, err := vhnotify.NewWatcherWithOptions(opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("vhnotify started", "log_file", watcher.LogFile(), "language", catalog.Language().String())

	if err := drainWatchErrors(ctx, errs, logger); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// drainWatchErrors logs watcher errors until the channel closes. If the
// watcher stopped on its own after a tail error, that error is returned.
func drainWatchErrors(ctx context.Context, errs <-chan error, logger *slog.Logger) error {
	var tailErr error
	for err := range errs {
		var watchErr *vhnotify.WatchError
		var deliveryErr *vhnotify.DeliveryError
		switch {
		case errors.As(err, &deliveryErr):
			// already logged by the watcher
			logger.Debug("delivery error", "error", err)
		case errors.As(err, &watchErr):
			logger.Error("watch error", "op", watchErr.Op, "path", watchErr.Path, "error", watchErr.Err)
			if watchErr.Op == vhnotify.WatchOpTail {
				tailErr = err
			}
		default:
			logger.Warn("watch error", "error", err)
		}
	}
	if ctx.Err() == nil && tailErr != nil {
		return tailErr
	}
	return nil
}

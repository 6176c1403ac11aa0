// Command vhnotify follows a Valheim dedicated server log and posts player
// activity to a chat.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vhnotify/vhnotify-go/internal/config"
)

var (
	// global flags
	verbose    bool
	configPath string
	language   string
)

var rootCmd = &cobra.Command{
	Use:   "vhnotify",
	Short: "Valheim server notifications",
	Long: `vhnotify watches a Valheim dedicated server log and turns it into
notifications: players connecting, dying, respawning and leaving, network
trouble, world restarts, new days and raids.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "",
		"Message language (en, ru); overrides the config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the process logger. Debug output is enabled by --verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config, or the defaults when it is not set, and
// applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg = config.Default()
	} else if cfg, err = config.Load(configPath); err != nil {
		return nil, err
	}
	if language != "" {
		cfg.Language = language
	}
	return cfg, nil
}

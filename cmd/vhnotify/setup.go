package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vhnotify/vhnotify-go/internal/config"
	"github.com/vhnotify/vhnotify-go/internal/identity"
	"github.com/vhnotify/vhnotify-go/internal/notify"
)

// openStore opens the identity cache named by cfg.
func openStore(cfg config.IdentityConfig) (identity.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return identity.OpenSQLite(cfg.Path)
	case config.DriverJSON:
		return identity.NewJSONStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown identity driver %q", cfg.Driver)
	}
}

// buildResolver wires the identity cache and, unless offline, the Steam
// profile lookup.
func buildResolver(ctx context.Context, cfg *config.Config, offline bool, logger *slog.Logger) (*identity.Resolver, error) {
	store, err := openStore(cfg.Identity)
	if err != nil {
		return nil, err
	}
	opts := []identity.Option{
		identity.WithStore(store),
		identity.WithTimeout(cfg.Timeout),
		identity.WithLogger(logger.With("component", "identity")),
	}
	if !offline {
		client := &http.Client{Timeout: cfg.Timeout}
		opts = append(opts, identity.WithFetcher(identity.NewSteamFetcher(cfg.Identity.ProfileURL, client)))
	}
	return identity.NewResolver(ctx, opts...), nil
}

// buildSink assembles every configured destination. Dry run replaces them
// all with out. The returned closer releases network connections.
func buildSink(cfg *config.Config, out io.Writer) (notify.Sink, func() error, error) {
	if cfg.DryRun {
		return notify.NewWriterSink(out), func() error { return nil }, nil
	}

	var (
		sinks   notify.Fanout
		closers []func() error
	)
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramSink(notify.TelegramConfig{
			Token:     cfg.Telegram.Token,
			ChatID:    cfg.Telegram.ChatID,
			APIURL:    cfg.Telegram.APIURL,
			RateLimit: cfg.Telegram.RateLimit,
			Client:    &http.Client{Timeout: cfg.Timeout},
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, tg)
	}
	if cfg.Nats.Enabled() {
		ns, err := notify.NewNatsSink(notify.NatsConfig{
			URL:          cfg.Nats.URL,
			Subject:      cfg.Nats.Subject,
			FlushTimeout: cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, ns)
		closers = append(closers, ns.Close)
	}
	if len(sinks) == 0 {
		return nil, nil, errors.New("no delivery configured")
	}

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	if len(sinks) == 1 {
		return sinks[0], closeAll, nil
	}
	return sinks, closeAll, nil
}

package vhnotify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vhnotify/vhnotify-go/internal/locale"
)

// processor runs one line through the engine, renders what it produces and
// delivers each message before returning. It is shared by the live watcher
// and Replay.
type processor struct {
	engine   *Engine
	renderer Renderer
	sink     Sink
	observer ObserverFunc
	timeout  time.Duration
	log      *slog.Logger
}

func newProcessor(cfg *watchConfig) (*processor, error) {
	renderer := cfg.renderer
	if renderer == nil {
		cat, err := locale.Load("en")
		if err != nil {
			return nil, err
		}
		renderer = cat
	}
	return &processor{
		engine:   NewEngine(cfg.resolver, cfg.logger),
		renderer: renderer,
		sink:     cfg.sink,
		observer: cfg.observer,
		timeout:  cfg.timeout,
		log:      cfg.logger,
	}, nil
}

// processLine handles line and returns the number of notifications it
// produced along with any render or delivery failures. Failures never stop
// the remaining notifications of the line.
func (p *processor) processLine(ctx context.Context, line string) (int, error) {
	notes := p.engine.HandleLine(ctx, line)
	if len(notes) == 0 {
		return 0, nil
	}

	var errs []error
	for _, n := range notes {
		msg, err := p.renderer.Render(n)
		if err != nil {
			p.log.Error("render failed", "type", n.Type, "error", err)
			errs = append(errs, &WatchError{Op: WatchOpRender, Err: err})
			continue
		}
		p.log.Info("notification", "type", n.Type, "message", msg)

		if p.observer != nil {
			p.observer(n, msg)
		}
		if p.sink == nil {
			continue
		}
		if err := p.send(ctx, msg); err != nil {
			p.log.Warn("delivery failed", "type", n.Type, "error", err)
			errs = append(errs, &DeliveryError{Message: msg, Err: err})
		}
	}
	return len(notes), errors.Join(errs...)
}

func (p *processor) send(ctx context.Context, msg string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.sink.Send(ctx, msg)
}

package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/hyprbar/internal/config"
)

// HistoryPruner is the part of the store the pruner needs.
type HistoryPruner interface {
	Prune(ctx context.Context, maxAge time.Duration, keep int) (int, error)
}

// Pruner trims notification history on a fixed interval.
type Pruner struct {
	store    HistoryPruner
	maxAge   time.Duration
	keep     int
	interval time.Duration
	logger   *slog.Logger
}

// NewPruner creates a pruner from the [history] config section.
func NewPruner(store HistoryPruner, cfg config.HistoryConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:    store,
		maxAge:   cfg.MaxAge.Duration(),
		keep:     cfg.Keep,
		interval: cfg.PruneInterval.Duration(),
		logger:   logger,
	}
}

// Name implements source.Worker.
func (p *Pruner) Name() string { return "history-prune" }

// Run prunes once at start and then every interval. A zero interval prunes
// only at start.
func (p *Pruner) Run(ctx context.Context) error {
	if p.maxAge <= 0 && p.keep <= 0 {
		p.logger.Debug("history pruning disabled")
		<-ctx.Done()
		return nil
	}

	p.prune(ctx)
	if p.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	n, err := p.store.Prune(ctx, p.maxAge, p.keep)
	if err != nil {
		p.logger.Warn("failed to prune notification history", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("pruned notification history", "removed", n)
	}
}

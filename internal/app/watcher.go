package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/gengo-go/internal/config"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/internal/tracker"
	"github.com/samvad-hq/gengo-go/pkg/publishers"
)

// Watcher represents the job watcher runtime. It polls the jobs recorded in
// the ledger and fans status changes out to the configured publishers.
type Watcher struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	trackService *tracker.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, client tracker.JobFetcher, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("api client must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubRegistry := publishers.DefaultRegistry()
	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := OpenStore(cfg, log)
	if err != nil {
		fanout.Close()
		return nil, err
	}

	return &Watcher{
		cfg:          cfg,
		fanout:       fanout,
		trackService: tracker.NewService(client, store, fanout, cfg.Environment(), log),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.trackService == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"environment":      w.cfg.Environment(),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx); err != nil {
		w.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single pass over the tracked jobs.
func (w *Watcher) runOnce(ctx context.Context) error {
	start := time.Now()
	res, err := w.trackService.RunOnce(ctx)
	w.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"checked":    res.Checked,
		"changed":    res.Changed,
		"forgotten":  res.Forgotten,
		"failed":     res.Failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return err
}

// close releases the storage backend and publisher connections, logging any errors encountered.
func (w *Watcher) close() {
	if w == nil {
		return
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publisher close failed", "error", err.Error())
	}
}

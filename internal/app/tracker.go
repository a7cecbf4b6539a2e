package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pawsignal-hq/whistle-tracker/internal/config"
	"github.com/pawsignal-hq/whistle-tracker/internal/logger"
	"github.com/pawsignal-hq/whistle-tracker/internal/poller"
	"github.com/pawsignal-hq/whistle-tracker/internal/storage"
	"github.com/pawsignal-hq/whistle-tracker/pkg/httpclient"
	"github.com/pawsignal-hq/whistle-tracker/pkg/publishers"
	"github.com/pawsignal-hq/whistle-tracker/pkg/whistle"
)

// Tracker represents the activity tracker runtime. It owns the shared HTTP
// session, logs the API client in, and runs the poll loop, handing new
// activity to the publisher fanout and the seen-event store.
type Tracker struct {
	cfg          *config.Config
	client       *whistle.Client
	fanout       *publishers.Fanout
	pollService  *poller.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewTracker builds a tracker runtime from config, performing the login
// exchange up front so a bad credential fails fast.
func NewTracker(ctx context.Context, cfg *config.Config, log logger.Logger) (*Tracker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := httpclient.NewRestyHTTPClient(cfg.HTTPTimeout)
	client := whistle.New(cfg.WhistleEmail, cfg.WhistlePassword, session)
	apiCfg := whistle.Config{
		Scheme:  cfg.APIScheme,
		Host:    cfg.APIHost,
		APIPath: cfg.APIPath,
	}
	if err := client.Init(ctx, &apiCfg); err != nil {
		return nil, fmt.Errorf("init whistle client: %w", err)
	}
	log.InfoObj("whistle client authenticated", "api_host", cfg.APIHost)

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

	storeOpts := storage.Options{
		EventTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"event_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	pollService := poller.NewService(client, fanout, log, store, cfg.WatchPetIDs)

	return &Tracker{
		cfg:          cfg,
		client:       client,
		fanout:       fanout,
		pollService:  pollService,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	if t == nil || t.pollService == nil {
		return fmt.Errorf("tracker is not initialized")
	}
	defer t.closeStore()

	t.log.InfoObj("tracker loop starting", "tracker_state", map[string]any{
		"publishers_count": t.fanout.Size(),
		"poll_interval":    t.pollInterval.String(),
		"watch_pets":       t.cfg.WatchPetIDs,
	})

	if err := t.runOnce(ctx); err != nil {
		t.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.InfoObj("tracker loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := t.runOnce(ctx); err != nil {
				t.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// runOnce performs a single tracking pass.
func (t *Tracker) runOnce(ctx context.Context) error {
	start := time.Now()
	t.log.InfoObj("poll started", "poll_meta", map[string]any{
		"started_at": start.UTC(),
	})
	if err := t.pollService.Run(ctx); err != nil {
		return err
	}
	t.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (t *Tracker) closeStore() {
	if t == nil || t.store == nil {
		return
	}
	if err := t.store.Close(); err != nil {
		t.log.ErrorObj("storage close failed", "error", err)
	}
}

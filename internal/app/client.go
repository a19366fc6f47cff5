package app

import (
	"fmt"

	"github.com/samvad-hq/gengo-go/internal/config"
	"github.com/samvad-hq/gengo-go/internal/logger"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/pkg/httpclient"
	"github.com/samvad-hq/gengo-go/pkg/mygengo"
	"go.uber.org/zap"
)

// NewClient builds an API client from config. In debug mode resty traces
// each request through sugar.
func NewClient(cfg *config.Config, sugar *zap.SugaredLogger, log logger.Logger) *mygengo.Client {
	httpOpts := httpclient.Options{
		Timeout:   cfg.RequestTimeout,
		UserAgent: mygengo.DefaultUserAgent,
		Debug:     cfg.Debug,
	}
	if sugar != nil {
		httpOpts.Logger = sugar
	}

	opts := []mygengo.Option{
		mygengo.WithSandbox(cfg.Sandbox),
		mygengo.WithAPIVersion(cfg.APIVersion),
		mygengo.WithDebug(cfg.Debug),
		mygengo.WithHTTPClient(httpclient.NewRestyClientWithOptions(httpOpts)),
		mygengo.WithLogger(log),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, mygengo.WithBaseURL(cfg.BaseURL))
	}

	return mygengo.New(mygengo.Credentials{
		PublicKey:  cfg.PublicKey,
		PrivateKey: cfg.PrivateKey,
	}, opts...)
}

// OpenStore opens the job ledger configured in cfg.
func OpenStore(cfg *config.Config, log logger.Logger) (storage.Store, error) {
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		JobTTL:          cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if log != nil {
		log.DebugObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"job_ttl_seconds":          int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}
	return store, nil
}

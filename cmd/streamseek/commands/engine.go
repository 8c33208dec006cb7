package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/oguzkse/streamseek/internal/cache"
	"github.com/oguzkse/streamseek/internal/discovery"
	"github.com/oguzkse/streamseek/internal/discovery/headless"
	"github.com/oguzkse/streamseek/internal/discovery/sources"
	"github.com/oguzkse/streamseek/internal/orchestration"
	"github.com/oguzkse/streamseek/internal/scheduler"
	"github.com/oguzkse/streamseek/internal/validation"
	"github.com/oguzkse/streamseek/pkg/models"
	"github.com/oguzkse/streamseek/pkg/utils"
)

// engine is the fully wired discovery pipeline plus whatever needs closing
// when the command finishes.
type engine struct {
	orchestrator *orchestration.Orchestrator
	metrics      *utils.Metrics
	config       *models.Config
	closers      []func() error
}

func (e *engine) Close() {
	for _, fn := range e.closers {
		if err := fn(); err != nil {
			logrus.Warnf("Cleanup failed: %v", err)
		}
	}
}

// loadAppConfig resolves the effective configuration: defaults, then the
// config file viper located, then flag/env overrides.
func loadAppConfig() (*models.Config, error) {
	cfg := models.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		if err := cfg.Load(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if dataDir := viper.GetString("data_directory"); dataDir != "" && cfg.Global.DataDir == "" {
		cfg.Global.DataDir = dataDir
	}
	cfg.Global.LogLevel = viper.GetString("log_level")
	cfg.Global.LogFormat = viper.GetString("log_format")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildEngine(cfg *models.Config) (*engine, error) {
	logger := logrus.StandardLogger()
	metrics := utils.NewMetrics(viper.GetBool("runtime_metrics"))

	registry := sources.NewRegistry(cfg.Discovery.RetryAttempts, cfg.Discovery.RetryBackoff, logger)
	timeout := cfg.Probe.Timeout

	var closers []func() error

	if cfg.Discovery.CRTSH.Enabled {
		src := sources.NewCRTSHSource(cfg.Discovery.CRTSH.BaseURL, cfg.Discovery.CRTSH.RateLimit, timeout)
		if err := registry.Add(src); err != nil {
			return nil, err
		}
	}
	if cfg.Discovery.CertSpotter.Enabled {
		src := sources.NewCertSpotterSource(cfg.Discovery.CertSpotter.BaseURL, cfg.Discovery.Suffix, cfg.Discovery.CertSpotter.RateLimit, timeout)
		if err := registry.Add(src); err != nil {
			return nil, err
		}
	}
	if cfg.Discovery.RapidDNS.Enabled {
		src := sources.NewRapidDNSSource(cfg.Discovery.RapidDNS.BaseURL, cfg.Discovery.RapidDNS.RateLimit, timeout)
		if err := registry.Add(src); err != nil {
			return nil, err
		}
	}
	if cfg.Discovery.Pages.Enabled {
		var renderer headless.Renderer = headless.NopRenderer{}
		if cfg.Discovery.Headless.Enabled {
			pw := headless.NewPlaywrightRenderer(cfg.Discovery.Headless.Timeout, cfg.Discovery.Headless.UserAgent, logger)
			closers = append(closers, pw.Close)
			renderer = pw
		}
		src := sources.NewPagesSource(cfg.Discovery.Pages, renderer, timeout, logger)
		if err := registry.Add(src); err != nil {
			return nil, err
		}
	}
	if cfg.Discovery.CTStream.Enabled {
		src, err := sources.NewCTStreamSource(cfg.Discovery.CTStream, timeout, logger)
		if err != nil {
			logger.Warnf("CT stream source unavailable: %v", err)
		} else if err := registry.Add(src); err != nil {
			return nil, err
		}
	}
	logger.Infof("Discovery sources enabled: %v", registry.Names())

	aggregator := discovery.NewAggregator(registry, cfg.Discovery, metrics, logger)
	dnsFilter := validation.NewDNSFilter(cfg.Discovery.DNSCheck, logger)
	prober := validation.NewProber(cfg.Probe, validation.RandomUserAgent, metrics, logger)
	validator := validation.NewValidator(prober, cfg.Probe.Paths, logger)
	racer := scheduler.New(validator, cfg.Probe.Concurrency, logger)
	store := cache.New(cfg.Cache, cfg.Discovery.DefaultBaseURL, logger)

	if dir := filepath.Dir(cfg.Cache.File); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warnf("Failed to create data directory: %v", err)
		}
	}

	orchestrator := orchestration.New(*cfg, aggregator, dnsFilter, racer, store, metrics, logger)
	return &engine{
		orchestrator: orchestrator,
		metrics:      metrics,
		config:       cfg,
		closers:      closers,
	}, nil
}

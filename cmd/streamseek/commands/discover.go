package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewDiscoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [pattern]",
		Short: "Find the currently live base URL",
		Long: `Run the full discovery pipeline: consult the cache, aggregate candidate
hostnames from certificate transparency and page sources, race-validate them
and print the winning base URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDiscover,
	}

	cmd.Flags().Bool("no-cache", false, "Ignore the cached result and rediscover")
	cmd.Flags().Duration("timeout", 0, "Override the discovery timeout")
	cmd.Flags().String("metrics-listen", "", "Serve Prometheus metrics on this address for the duration of the run")
	cmd.Flags().Bool("runtime-metrics", false, "Include Go runtime collectors in the metrics output")

	_ = viper.BindPFlag("discover.no_cache", cmd.Flags().Lookup("no-cache"))
	_ = viper.BindPFlag("discover.timeout", cmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("metrics_listen", cmd.Flags().Lookup("metrics-listen"))
	_ = viper.BindPFlag("runtime_metrics", cmd.Flags().Lookup("runtime-metrics"))

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Discovery.Pattern = args[0]
	}
	if t := viper.GetDuration("discover.timeout"); t > 0 {
		cfg.Discovery.Timeout = t
	}
	if viper.GetBool("discover.no_cache") {
		// a cache file nobody can parse is the same as no cache file
		if err := os.Remove(cfg.Cache.File); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("Failed to drop cache file: %v", err)
		}
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize discovery engine: %w", err)
	}
	defer eng.Close()

	ctx, cancel := signalContext()
	defer cancel()

	stopMetrics := startMetricsServer(eng)
	defer stopMetrics()

	start := time.Now()
	baseURL := eng.orchestrator.Discover(ctx)
	logrus.Infof("Discovery finished in %v", time.Since(start).Round(time.Millisecond))

	fmt.Println(baseURL)
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logrus.Info("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// startMetricsServer exposes the run's metrics when an address is configured.
// Returns a stop function; a no-op when metrics are disabled.
func startMetricsServer(eng *engine) func() {
	addr := viper.GetString("metrics_listen")
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(eng.metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logrus.Infof("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Warnf("Metrics server stopped: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

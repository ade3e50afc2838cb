package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/internal/config"
	"github.com/younsl/n8n-model-tracker/pkg/connectivity"
	"github.com/younsl/n8n-model-tracker/pkg/dashboard"
	"github.com/younsl/n8n-model-tracker/pkg/fetcher"
	"github.com/younsl/n8n-model-tracker/pkg/logger"
	"github.com/younsl/n8n-model-tracker/pkg/metrics"
	"github.com/younsl/n8n-model-tracker/pkg/publisher"
	"github.com/younsl/n8n-model-tracker/pkg/tracker"
	"github.com/younsl/n8n-model-tracker/pkg/version"
)

type options struct {
	baseURL     string
	apiKey      string
	batchSize   int
	serve       bool
	addr        string
	publishers  string
	showVersion bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		info := version.Get()
		fmt.Fprintf(stdout, "n8n-model-tracker %s (commit %s, built %s, %s)\n", info.Version, info.GitCommit, info.BuildDate, info.GoVersion)
		return nil
	}

	cfg, err := initializeConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	if opts.serve {
		return serve(ctx, cfg, registry, recorder)
	}
	return scan(ctx, cfg, recorder)
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("n8n-model-tracker", flag.ContinueOnError)
	fs.StringVar(&opts.baseURL, "base-url", "", "n8n base URL (overrides N8N_BASE_URL)")
	fs.StringVar(&opts.apiKey, "api-key", "", "n8n API key (overrides N8N_API_KEY)")
	fs.IntVar(&opts.batchSize, "batch-size", 0, fmt.Sprintf("workflows per page, %d-%d (overrides N8N_BATCH_SIZE)", config.MinBatchSize, config.MaxBatchSize))
	fs.BoolVar(&opts.serve, "serve", false, "run the web dashboard instead of a one-shot scan")
	fs.StringVar(&opts.addr, "addr", "", "dashboard listen address (overrides LISTEN_ADDR)")
	fs.StringVar(&opts.publishers, "publishers", "", "comma separated publishers (overrides PUBLISHERS)")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// initializeConfig loads the configuration and applies explicitly set flags
// on top of it.
func initializeConfig(opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if opts.baseURL != "" {
		cfg.N8NBaseURL = opts.baseURL
	}
	if opts.apiKey != "" {
		cfg.N8NAPIKey = opts.apiKey
	}
	if opts.batchSize != 0 {
		cfg.BatchSize = opts.batchSize
	}
	if opts.addr != "" {
		cfg.ListenAddr = opts.addr
	}
	if opts.publishers != "" {
		cfg.Publishers = config.SplitList(opts.publishers)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// verifyConnectivity checks the n8n health endpoint. It is skipped when no
// base URL is set so that the fetch reports the missing URL itself.
func verifyConnectivity(ctx context.Context, cfg *config.Config) error {
	if cfg.SkipConnectivityCheck || cfg.N8NBaseURL == "" {
		logrus.Debug("Skipping n8n connectivity check")
		return nil
	}

	checker := connectivity.NewChecker(connectivity.Config{
		BaseURL:       cfg.N8NBaseURL,
		MaxRetries:    3,
		RetryInterval: 2,
		Timeout:       5,
	})
	return checker.VerifyConnectivity(ctx)
}

func initializeFetcher(cfg *config.Config) *fetcher.Fetcher {
	return fetcher.New(fetcher.Options{
		Endpoint: fetcher.ResolveEndpoint(cfg.N8NBaseURL),
		APIKey:   cfg.N8NAPIKey,
		PageSize: cfg.BatchSize,
		Timeout:  cfg.RequestTimeoutDuration(),
	})
}

func scan(ctx context.Context, cfg *config.Config, recorder *metrics.Recorder) error {
	publishers, err := publisher.NewPublisherFactory().CreatePublishers(cfg.Publishers, cfg.PublisherConfig())
	if err != nil {
		return err
	}

	if err := verifyConnectivity(ctx, cfg); err != nil {
		return err
	}

	result, err := tracker.NewTracker(initializeFetcher(cfg), recorder).Run(ctx, nil)
	if err != nil {
		return err
	}

	if err := publisher.PublishAll(ctx, result, publishers); err != nil {
		return err
	}

	logrus.WithField("workflows", result.TotalWorkflows()).Info("Workflow scan completed successfully")
	return nil
}

func serve(ctx context.Context, cfg *config.Config, registry *prometheus.Registry, recorder *metrics.Recorder) error {
	if err := verifyConnectivity(ctx, cfg); err != nil {
		logrus.WithError(err).Warn("n8n is not reachable yet, starting dashboard anyway")
	}

	dash := dashboard.NewServer(dashboard.Options{
		Config:   cfg,
		Recorder: recorder,
		Gatherer: registry,
	})
	defer dash.Close()

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      dash.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("Starting dashboard server")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server error: %w", err)
	case sig := <-shutdown:
		logrus.WithField("signal", sig.String()).Info("Shutting down gracefully")
	case <-ctx.Done():
		logrus.Info("Context cancelled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Graceful shutdown failed")
		return server.Close()
	}

	logrus.Info("Dashboard server stopped")
	return nil
}

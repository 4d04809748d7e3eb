package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/api"
	"github.com/adamscao/skillguard/internal/certcache"
	"github.com/adamscao/skillguard/internal/config"
	"github.com/adamscao/skillguard/internal/logging"
	"github.com/adamscao/skillguard/internal/metrics"
	"github.com/adamscao/skillguard/internal/verifier"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/skillguard/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("skillguard\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting skillguard",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("config", *configPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Open certificate cache
	logger.Info("opening certificate cache", zap.String("backend", cfg.Cache.Backend))
	store, err := certcache.OpenStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open certificate cache: %w", err)
	}
	cache := certcache.New(store, logger, m)
	defer cache.Close()

	validator := verifier.New(verifier.Options{
		Tolerance:        cfg.Verifier.TimestampTolerance,
		AuthorityDomain:  cfg.Verifier.AuthorityDomain,
		Cache:            cache,
		Client:           verifier.NewStdClient(cfg.GetFetchTimeout()),
		DisableSignature: cfg.Verifier.DisableSignature,
		Logger:           logger,
		Metrics:          m,
	})

	server := api.NewServer(cfg, api.Deps{
		Validator: validator,
		Cache:     cache,
		Gatherer:  reg,
		Logger:    logger,
	})

	return server.Start(ctx)
}

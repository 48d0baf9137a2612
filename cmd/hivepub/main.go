// cmd/hivepub/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/enrique89ve/HivePublisher-sub000/internal/config"
	"github.com/enrique89ve/HivePublisher-sub000/internal/hive"
	"github.com/enrique89ve/HivePublisher-sub000/internal/logger"
	"github.com/enrique89ve/HivePublisher-sub000/internal/rpc"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		LogFile:     cfg.LogFile,
		MaxSize:     50,
		MaxBackups:  3,
		MaxAge:      14,
		Compress:    true,
		Development: cfg.DebugLogging,
	})
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Starting hive publisher transport",
		zap.String("network", cfg.Network),
		zap.Int("nodes", len(cfg.Nodes)))

	client, err := rpc.New(rpc.Options{
		Nodes:            cfg.Nodes,
		Network:          cfg.Network,
		Timeout:          time.Duration(cfg.TimeoutMs) * time.Millisecond,
		MaxRetries:       cfg.MaxRetries,
		FailureThreshold: cfg.FailureThreshold,
		CircuitCooldown:  time.Duration(cfg.CircuitCooldownMs) * time.Millisecond,
		CacheTTL:         time.Duration(cfg.CacheTTLMs) * time.Millisecond,
		RateLimitRPS:     cfg.RateLimitRPS,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to create RPC client", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log.Logger)
	}

	client.StartMonitor(ctx, 30*time.Second)

	chain := hive.New(client)
	props, err := chain.GetDynamicGlobalProperties(ctx)
	if err != nil {
		log.Fatal("Chain unreachable", zap.Error(err))
	}
	log.Info("Connected to chain",
		zap.Uint32("head_block", props.HeadBlockNumber),
		zap.String("witness", props.CurrentWitness),
		zap.String("node", client.CurrentNode()))

	healthy := client.GetHealthyNodes(ctx)
	log.Info("Node fleet health",
		zap.Strings("healthy", healthy),
		zap.Int("configured", len(client.Nodes())))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	snap := client.Metrics()
	log.Info("Shutting down",
		zap.Uint64("total_requests", snap.TotalRequests),
		zap.Uint64("failed_requests", snap.FailedRequests),
		zap.Duration("uptime", snap.Uptime))
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics server stopped", zap.Error(err))
	}
}

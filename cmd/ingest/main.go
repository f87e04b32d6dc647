// Package main streams exchange klines into candle storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"overfit-lab/internal/ingestion"
	"overfit-lab/internal/observability"
	"overfit-lab/internal/storage"
	chstore "overfit-lab/internal/storage/clickhouse"
	"overfit-lab/internal/storage/memory"
	"overfit-lab/internal/storage/migrations"
)

func main() {
	// Stream source
	wsEndpoint := flag.String("ws-endpoint", "wss://stream.binance.com:9443/stream", "Exchange combined-stream WebSocket endpoint")
	symbols := flag.String("symbols", "", "Comma-separated symbols to ingest (required)")
	interval := flag.String("interval", "1h", "Kline interval (e.g. 1m, 1h, 4h)")

	// Storage
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of ClickHouse")

	// Batching
	batchSize := flag.Int("batch-size", 100, "Candles per insert batch")
	flushInterval := flag.Duration("flush-interval", 10*time.Second, "Max time between flushes")

	// Observability
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags|log.Lshortfile)

	symbolList := splitSymbols(*symbols)
	if len(symbolList) == 0 {
		logger.Fatal("--symbols is required")
	}
	logger.Printf("Ingesting %s klines for: %v", *interval, symbolList)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, *wsEndpoint, symbolList, *interval, *clickhouseDSN, *useMemory, *batchSize, *flushInterval)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, wsEndpoint string, symbols []string, interval, clickhouseDSN string, useMemory bool, batchSize int, flushInterval time.Duration) error {
	var candleStore storage.CandleStore = memory.NewCandleStore()

	if !useMemory {
		if clickhouseDSN == "" {
			return fmt.Errorf("--clickhouse-dsn is required (use --use-memory for in-memory storage)")
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return err
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	}

	source, err := ingestion.NewWSKlineSource(wsEndpoint, symbols, interval, nil, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	ingester := ingestion.NewIngester(source, candleStore, logger).
		WithBatching(batchSize, flushInterval)

	persisted, err := ingester.Run(ctx)
	logger.Printf("Persisted %d candles", persisted)
	observability.RecordCandlesStored(persisted)
	return err
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tickerflow/tickerdesk/internal/duckdb"
	"github.com/tickerflow/tickerdesk/internal/httpserver"
	"github.com/tickerflow/tickerdesk/internal/socketrpc"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := duckdb.NewStore(cfg.DBPath, duckdb.WithQueryTimeout(cfg.QueryTimeout), duckdb.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	defer store.Close()

	var api *httpserver.Server
	if cfg.APIEnabled {
		api = httpserver.NewServer(httpserver.Options{
			Addr:           cfg.APIAddr,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimit:      cfg.RateLimit,
			RateBurst:      cfg.RateBurst,
			Logger:         logger.WithPrefix("api"),
		}, store)
		if err := api.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}

	var sock *socketrpc.Server
	if cfg.SocketEnabled {
		sock = socketrpc.NewServer(cfg.SocketPath, store, logger.WithPrefix("socket"))
		if err := sock.Start(); err != nil {
			logger.Warn("socket server not started", "err", err)
			sock = nil
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		if cfg.SocketEnabled {
			os.Remove(cfg.SocketPath)
		}
		os.Exit(1)
	}()

	printStartupBanner(os.Stdout, cfg, store, api, sock != nil)

	g, gctx := errgroup.WithContext(ctx)
	if api != nil {
		g.Go(func() error {
			<-gctx.Done()
			return api.Stop()
		})
	}
	if sock != nil {
		g.Go(func() error {
			<-gctx.Done()
			sock.Stop()
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("stopped")
	return nil
}

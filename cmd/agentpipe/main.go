// Package main provides the agentpipe binary entry point.
// AgentPipe runs agent-set pipelines over text input and exposes the
// dashboard-facing HTTP API for synchronous and asynchronous execution.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hupe1980/agentpipe"
	"github.com/hupe1980/agentpipe/config"
	"github.com/hupe1980/agentpipe/logging"
	"github.com/hupe1980/agentpipe/model"
	"github.com/hupe1980/agentpipe/model/anthropic"
	"github.com/hupe1980/agentpipe/model/openai"
	"github.com/hupe1980/agentpipe/server"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "agentpipe",
		Short:        "Agent-set pipeline execution engine",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	cmd.AddCommand(newServeCmd(&cfgPath))

	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var seedDemo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pipeline HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return serve(cfg, seedDemo)
		},
	}

	cmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "seed the catalog with a demo agent set")

	return cmd
}

func serve(cfg *config.Config, seedDemo bool) error {
	logger := logging.NewSlogLogger(logLevel(cfg.Logging.Level), cfg.Logging.Format, false)

	invoker, err := buildInvoker(cfg.Model)
	if err != nil {
		return err
	}

	pipe := agentpipe.New(func(o *agentpipe.Options) {
		o.Invoker = invoker
		o.Workers = cfg.Pipeline.Workers
		o.QueueSize = cfg.Pipeline.QueueSize
		o.SectionConcurrency = cfg.Pipeline.SectionConcurrency
		o.BatchSize = cfg.Pipeline.BatchSize
		o.CallTimeout = cfg.Model.CallTimeout.Duration()
		o.Logger = logger
	})
	defer pipe.Close()

	if seedDemo {
		if err := seedCatalog(pipe); err != nil {
			return fmt.Errorf("seed demo catalog: %w", err)
		}
		logger.Info("demo catalog seeded")
	}

	api := server.New(pipe.Runner(), pipe.Tracker(), pipe.Catalog(), func(o *server.Options) {
		o.SyncTimeout = cfg.Server.SyncTimeout.Duration()
		o.Logger = logger
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.SyncTimeout.Duration() + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agentpipe listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildInvoker(cfg config.ModelConfig) (model.Invoker, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(), nil
	case "openai":
		return openai.New(func(o *openai.Options) {
			o.BaseURL = cfg.Endpoint
		}), nil
	case "mock":
		return model.NewMockInvoker(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func logLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

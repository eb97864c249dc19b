// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// srr-coordinator is the SRR daemon: it serves the operator API on a
// Unix socket and orchestrates the fleet's agents over the queue
// socket directory.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/catalog"
	"github.com/stark-dev/fty-srr-mg/lib/config"
	"github.com/stark-dev/fty-srr-mg/lib/coordinator"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
	"github.com/stark-dev/fty-srr-mg/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		catalogPath string
		queueDir    string
		socketPath  string
		debug       bool
		showVersion bool
	)

	pflag.StringVar(&configPath, "config", "", "path to the YAML config file (default: $SRR_CONFIG)")
	pflag.StringVar(&catalogPath, "catalog", "", "path to a JSONC fleet catalog (default: built-in reference fleet)")
	pflag.StringVar(&queueDir, "queue-dir", "", "directory holding the agent queue sockets (overrides config)")
	pflag.StringVar(&socketPath, "socket", "", "Unix socket for the operator API (overrides config)")
	pflag.BoolVar(&debug, "debug", false, "enable debug logging")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("srr-coordinator %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if queueDir != "" {
		cfg.QueueDir = queueDir
	}
	if socketPath != "" {
		cfg.OperatorSocket = socketPath
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	fleet := catalog.Default()
	if cfg.CatalogPath != "" {
		fleet, err = catalog.ParseFile(cfg.CatalogPath)
		if err != nil {
			return err
		}
		logger.Info("fleet catalog loaded", "path", cfg.CatalogPath)
	}

	worker, err := coordinator.New(coordinator.Params{
		Bus:               bus.NewSocketBus(cfg.QueueDir),
		Catalog:           fleet,
		AgentName:         cfg.AgentName,
		Version:           cfg.Version,
		SupportedVersions: cfg.SupportedVersions,
		RequestTimeout:    cfg.RequestTimeout(),
		RestartDelay:      cfg.RestartDelay(),
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := bus.NewServer(cfg.OperatorSocket, logger)

	server.Handle("list", func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		status, body := worker.RequestList()
		return operatorReply(status, body)
	})
	server.Handle("save", func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		status, body := worker.RequestSave(ctx, msg.UserData)
		return operatorReply(status, body)
	})
	server.Handle("restore", func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		// force travels inside the request body; the engine takes it
		// as an explicit argument.
		var header struct {
			Force bool `json:"force"`
		}
		if err := json.Unmarshal(msg.UserData, &header); err != nil {
			return bus.Message{}, fmt.Errorf("parsing restore request: %w", err)
		}
		status, body := worker.RequestRestore(ctx, msg.UserData, header.Force)
		return operatorReply(status, body)
	})
	server.Handle("reset", func(ctx context.Context, msg bus.Message) (bus.Message, error) {
		status, body := worker.RequestReset(msg.UserData)
		return operatorReply(status, body)
	})

	logger.Info("srr coordinator starting",
		"agent_name", cfg.AgentName,
		"version", cfg.Version,
		"queue_dir", cfg.QueueDir,
		"operator_socket", cfg.OperatorSocket,
	)

	return server.Serve(ctx)
}

// operatorReply wraps the engine's two-part reply into an envelope
// body.
func operatorReply(status string, body []byte) (bus.Message, error) {
	data, err := json.Marshal(payload.OperatorReply{Status: status, Body: body})
	if err != nil {
		return bus.Message{}, fmt.Errorf("marshaling operator reply: %w", err)
	}
	return bus.Message{UserData: data}, nil
}

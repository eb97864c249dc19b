// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// srr-agent-mock is a scriptable SRR agent for demos and manual
// testing. It serves one queue socket and answers save, restore, and
// reset for any feature, with per-feature failure injection so the
// coordinator's rollback paths can be exercised end to end:
//
//	srr-agent-mock --queue-dir /tmp/srr --queue ETN.Q.IPMCORE.CONFIG \
//	    --agent etn-malamute-config --fail-restore discovery
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/codec"
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
		queueDir    string
		queue       string
		agentName   string
		failSave    []string
		failRestore []string
		failReset   []string
		showVersion bool
	)

	pflag.StringVar(&queueDir, "queue-dir", "/run/srr", "directory holding the queue sockets")
	pflag.StringVar(&queue, "queue", "", "queue name to serve (required)")
	pflag.StringVar(&agentName, "agent", "", "agent name to answer as (required)")
	pflag.StringSliceVar(&failSave, "fail-save", nil, "features whose save fails")
	pflag.StringSliceVar(&failRestore, "fail-restore", nil, "features whose restore fails")
	pflag.StringSliceVar(&failReset, "fail-reset", nil, "features whose reset fails")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("srr-agent-mock %s\n", version.Info())
		return nil
	}
	if queue == "" {
		return fmt.Errorf("--queue is required")
	}
	if agentName == "" {
		return fmt.Errorf("--agent is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	agent := &mockAgent{
		name:        agentName,
		failSave:    failSave,
		failRestore: failRestore,
		failReset:   failReset,
		logger:      logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := bus.NewServer(filepath.Join(queueDir, queue+".sock"), logger)
	server.Handle(bus.ActionSave, agent.save)
	server.Handle(bus.ActionRestore, agent.restore)
	server.Handle(bus.ActionReset, agent.reset)

	logger.Info("mock agent starting", "agent", agentName, "queue", queue)
	return server.Serve(ctx)
}

type mockAgent struct {
	name        string
	failSave    []string
	failRestore []string
	failReset   []string
	logger      *slog.Logger
}

// decode unpacks the envelope body into a Query.
func decode(msg bus.Message) (payload.Query, error) {
	var query payload.Query
	if err := codec.Unmarshal(msg.UserData, &query); err != nil {
		return payload.Query{}, fmt.Errorf("decoding query: %w", err)
	}
	return query, nil
}

// reply packs a Reply into the envelope body.
func reply(r payload.Reply) (bus.Message, error) {
	data, err := codec.Marshal(r)
	if err != nil {
		return bus.Message{}, fmt.Errorf("encoding reply: %w", err)
	}
	return bus.Message{UserData: data}, nil
}

func (a *mockAgent) save(_ context.Context, msg bus.Message) (bus.Message, error) {
	query, err := decode(msg)
	if err != nil || query.Save == nil {
		return bus.Message{}, fmt.Errorf("malformed save query")
	}

	response := payload.SaveResponse{
		MapFeaturesData: make(map[string]payload.FeatureAndStatus, len(query.Save.Features)),
	}
	for _, feature := range query.Save.Features {
		a.logger.Debug("saving", "feature", feature)
		if slices.Contains(a.failSave, feature) {
			response.MapFeaturesData[feature] = payload.FeatureAndStatus{
				Status: payload.FeatureStatus{Status: payload.StatusFailed, Error: "save failed"},
			}
			continue
		}
		blob, err := json.Marshal(map[string]string{"feature": feature, "owner": a.name})
		if err != nil {
			return bus.Message{}, err
		}
		response.MapFeaturesData[feature] = payload.FeatureAndStatus{
			Status:  payload.FeatureStatus{Status: payload.StatusSuccess},
			Feature: payload.Feature{Version: "1.0", Data: blob},
		}
	}
	return reply(payload.Reply{Save: &response})
}

func (a *mockAgent) restore(_ context.Context, msg bus.Message) (bus.Message, error) {
	query, err := decode(msg)
	if err != nil || query.Restore == nil {
		return bus.Message{}, fmt.Errorf("malformed restore query")
	}

	status := payload.FeatureStatus{Status: payload.StatusSuccess}
	for feature := range query.Restore.MapFeaturesData {
		a.logger.Debug("restoring", "feature", feature)
		if slices.Contains(a.failRestore, feature) {
			status = payload.FeatureStatus{Status: payload.StatusFailed, Error: "restore failed for " + feature}
			break
		}
	}
	return reply(payload.Reply{Restore: &payload.RestoreResponse{Status: status}})
}

func (a *mockAgent) reset(_ context.Context, msg bus.Message) (bus.Message, error) {
	query, err := decode(msg)
	if err != nil || query.Reset == nil {
		return bus.Message{}, fmt.Errorf("malformed reset query")
	}

	response := payload.ResetResponse{
		MapFeaturesStatus: make(map[string]payload.FeatureStatus, len(query.Reset.Features)),
	}
	for _, feature := range query.Reset.Features {
		a.logger.Debug("resetting", "feature", feature)
		if slices.Contains(a.failReset, feature) {
			response.MapFeaturesStatus[feature] = payload.FeatureStatus{Status: payload.StatusFailed, Error: "reset failed"}
			continue
		}
		response.MapFeaturesStatus[feature] = payload.FeatureStatus{Status: payload.StatusSuccess}
	}
	return reply(payload.Reply{Reset: &response})
}

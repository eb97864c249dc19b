// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/catalog"
	"github.com/stark-dev/fty-srr-mg/lib/clock"
	"github.com/stark-dev/fty-srr-mg/lib/codec"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// RestartFunc is the host restart hook invoked after the countdown.
// Wiring it to the OS is the deployment's concern, not the engine's.
type RestartFunc func()

// Params configures a Worker. Bus, Catalog, AgentName and Version are
// required; the rest default sensibly.
type Params struct {
	Bus     bus.Bus
	Catalog *catalog.Catalog

	// AgentName is the coordinator's own name on the bus.
	AgentName string

	// Version stamps produced payloads and agent queries.
	Version string

	// SupportedVersions is the accepted restore payload version set.
	// Defaults to {"1.0", "2.0"}.
	SupportedVersions []string

	// RequestTimeout bounds each agent RPC. Defaults to 60s.
	RequestTimeout time.Duration

	// RestartDelay is the countdown before the restart hook fires.
	// Defaults to 5s.
	RestartDelay time.Duration

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Restart defaults to a hook that flushes filesystem buffers and
	// logs; the actual reboot wiring lives outside the engine.
	Restart RestartFunc

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Worker is the SRR orchestration engine.
type Worker struct {
	bus       bus.Bus
	catalog   *catalog.Catalog
	agentName string
	version   string
	supported []string
	timeout   time.Duration
	delay     time.Duration
	clock     clock.Clock
	restart   RestartFunc
	logger    *slog.Logger
}

// New validates p and builds a Worker.
func New(p Params) (*Worker, error) {
	if p.Bus == nil {
		return nil, fmt.Errorf("coordinator: Bus is required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("coordinator: Catalog is required")
	}
	if p.AgentName == "" {
		return nil, fmt.Errorf("coordinator: AgentName is required")
	}
	if p.Version == "" {
		return nil, fmt.Errorf("coordinator: Version is required")
	}

	w := &Worker{
		bus:       p.Bus,
		catalog:   p.Catalog,
		agentName: p.AgentName,
		version:   p.Version,
		supported: p.SupportedVersions,
		timeout:   p.RequestTimeout,
		delay:     p.RestartDelay,
		clock:     p.Clock,
		restart:   p.Restart,
		logger:    p.Logger,
	}
	if w.supported == nil {
		w.supported = []string{"1.0", "2.0"}
	}
	if w.timeout == 0 {
		w.timeout = 60 * time.Second
	}
	if w.delay == 0 {
		w.delay = 5 * time.Second
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.restart == nil {
		w.restart = defaultRestart(w.logger)
	}
	return w, nil
}

// supportedVersion reports whether v is an accepted restore payload
// version.
func (w *Worker) supportedVersion(v string) bool {
	return slices.Contains(w.supported, v)
}

// send issues one agent RPC: marshal the query, address the agent's
// queue, block for the reply, unmarshal. Transport failures arrive as
// *bus.Error from the bus itself.
func (w *Worker) send(ctx context.Context, agent, action string, query payload.Query) (payload.Reply, error) {
	queue, ok := w.catalog.Queue(agent)
	if !ok {
		return payload.Reply{}, fmt.Errorf("agent %q has no queue", agent)
	}

	data, err := codec.Marshal(query)
	if err != nil {
		return payload.Reply{}, fmt.Errorf("marshaling %s query for agent %s: %w", action, agent, err)
	}

	msg := bus.Message{
		Subject:  action,
		From:     w.agentName,
		To:       agent,
		UserData: data,
	}

	replyMsg, err := w.bus.Request(ctx, queue, msg, w.timeout)
	if err != nil {
		return payload.Reply{}, err
	}

	var reply payload.Reply
	if err := codec.Unmarshal(replyMsg.UserData, &reply); err != nil {
		return payload.Reply{}, &bus.Error{Queue: queue, Err: fmt.Errorf("decoding %s reply from agent %s: %w", action, agent, err)}
	}
	return reply, nil
}

// marshalBody marshals an operator response body, falling back to a
// minimal error document when a snapshot blob turns out not to be
// valid JSON.
func (w *Worker) marshalBody(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		w.logger.Error("marshaling operator response", "error", err)
		data, _ = json.Marshal(map[string]string{
			"status": string(payload.StatusFailed),
			"error":  err.Error(),
		})
	}
	return data
}

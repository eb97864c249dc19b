// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/catalog"
	"github.com/stark-dev/fty-srr-mg/lib/clock"
	"github.com/stark-dev/fty-srr-mg/lib/codec"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

const testPassphrase = "Eaton1234!"

// restoreCall records one feature restore received by a scripted
// agent: the feature name and the blob the coordinator sent.
type restoreCall struct {
	Feature string
	Data    json.RawMessage
}

// fleet is a scripted set of agents answering on a MemoryBus,
// mirroring the reference catalog. Each feature has a current blob;
// save returns it, restore installs the received one. Failures are
// injected per feature.
type fleet struct {
	t   *testing.T
	bus *bus.MemoryBus
	cat *catalog.Catalog

	mu          sync.Mutex
	blobs       map[string]json.RawMessage
	failRestore map[string]bool
	failSave    map[string]bool
	extraSave   map[string]string // agent -> stray feature added to save replies

	restores []restoreCall
	resets   []string
	saves    []string
}

// newFleet wires scripted agents for every queue in the catalog.
func newFleet(t *testing.T, cat *catalog.Catalog) *fleet {
	f := &fleet{
		t:           t,
		bus:         bus.NewMemoryBus(),
		cat:         cat,
		blobs:       make(map[string]json.RawMessage),
		failRestore: make(map[string]bool),
		failSave:    make(map[string]bool),
		extraSave:   make(map[string]string),
	}

	queues := make(map[string]string) // queue -> agent
	for _, group := range cat.Groups() {
		for _, fp := range group.Features {
			desc, _ := cat.Feature(fp.Feature)
			queue, _ := cat.Queue(desc.Agent)
			queues[queue] = desc.Agent
			f.setBlob(fp.Feature, fmt.Sprintf(`{"feature":%q,"state":"installed"}`, fp.Feature))
		}
	}
	for queue, agent := range queues {
		agent := agent
		f.bus.Handle(queue, func(msg bus.Message) (bus.Message, error) {
			return f.serve(agent, msg)
		})
	}
	return f
}

// setBlob sets a feature's current state.
func (f *fleet) setBlob(feature, blob string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[feature] = json.RawMessage(blob)
}

// blob returns a feature's current state.
func (f *fleet) blob(feature string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobs[feature]
}

// restoreCalls returns the restore traffic seen so far.
func (f *fleet) restoreCalls() []restoreCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]restoreCall, len(f.restores))
	copy(out, f.restores)
	return out
}

// savedFeatures returns every feature that received a save request.
func (f *fleet) savedFeatures() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.saves))
	copy(out, f.saves)
	return out
}

// resetFeatures returns every feature that received a reset request.
func (f *fleet) resetFeatures() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.resets))
	copy(out, f.resets)
	return out
}

func (f *fleet) serve(agent string, msg bus.Message) (bus.Message, error) {
	var query payload.Query
	if err := codec.Unmarshal(msg.UserData, &query); err != nil {
		return bus.Message{}, fmt.Errorf("decoding query: %w", err)
	}

	var reply payload.Reply
	switch {
	case query.Save != nil:
		reply.Save = f.serveSave(agent, query.Save)
	case query.Restore != nil:
		reply.Restore = f.serveRestore(query.Restore)
	case query.Reset != nil:
		reply.Reset = f.serveReset(query.Reset)
	default:
		return bus.Message{}, fmt.Errorf("empty query")
	}

	data, err := codec.Marshal(reply)
	if err != nil {
		return bus.Message{}, err
	}
	return bus.Message{UserData: data}, nil
}

func (f *fleet) serveSave(agent string, query *payload.SaveQuery) *payload.SaveResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	response := payload.SaveResponse{MapFeaturesData: make(map[string]payload.FeatureAndStatus)}

	features := append([]string(nil), query.Features...)
	if stray := f.extraSave[agent]; stray != "" {
		features = append(features, stray)
	}

	for _, feature := range features {
		f.saves = append(f.saves, feature)
		if f.failSave[feature] {
			response.MapFeaturesData[feature] = payload.FeatureAndStatus{
				Status: payload.FeatureStatus{Status: payload.StatusFailed, Error: "save failed"},
			}
			continue
		}
		response.MapFeaturesData[feature] = payload.FeatureAndStatus{
			Status:  payload.FeatureStatus{Status: payload.StatusSuccess},
			Feature: payload.Feature{Version: "1.0", Data: append(json.RawMessage(nil), f.blobs[feature]...)},
		}
	}
	return &response
}

func (f *fleet) serveRestore(query *payload.RestoreQuery) *payload.RestoreResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	status := payload.FeatureStatus{Status: payload.StatusSuccess}
	for feature, data := range query.MapFeaturesData {
		f.restores = append(f.restores, restoreCall{Feature: feature, Data: append(json.RawMessage(nil), data.Data...)})
		if f.failRestore[feature] {
			status = payload.FeatureStatus{Status: payload.StatusFailed, Error: "restore failed for " + feature}
			continue
		}
		f.blobs[feature] = append(json.RawMessage(nil), data.Data...)
	}
	return &payload.RestoreResponse{Status: status}
}

func (f *fleet) serveReset(query *payload.ResetQuery) *payload.ResetResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	response := payload.ResetResponse{MapFeaturesStatus: make(map[string]payload.FeatureStatus)}
	for _, feature := range query.Features {
		f.resets = append(f.resets, feature)
		response.MapFeaturesStatus[feature] = payload.FeatureStatus{Status: payload.StatusSuccess}
	}
	return &response
}

// testWorker builds a Worker over the fleet with a fake clock and a
// recorded restart hook.
type testWorker struct {
	*Worker
	fleet     *fleet
	clock     *clock.Fake
	restarted chan struct{}
}

func newTestWorker(t *testing.T, cat *catalog.Catalog) *testWorker {
	t.Helper()

	f := newFleet(t, cat)
	fake := clock.NewFake(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	restarted := make(chan struct{}, 1)

	w, err := New(Params{
		Bus:            f.bus,
		Catalog:        cat,
		AgentName:      "etn-srr",
		Version:        "2.0",
		RequestTimeout: time.Second,
		RestartDelay:   5 * time.Second,
		Clock:          fake,
		Restart:        func() { restarted <- struct{}{} },
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &testWorker{Worker: w, fleet: f, clock: fake, restarted: restarted}
}

// waitRestart blocks until the restart hook fires or the timeout
// expires.
func (tw *testWorker) waitRestart(t *testing.T) {
	t.Helper()
	select {
	case <-tw.restarted:
	case <-time.After(5 * time.Second):
		t.Fatal("restart hook never fired")
	}
}

// expectNoRestart asserts the restart hook stays silent.
func (tw *testWorker) expectNoRestart(t *testing.T) {
	t.Helper()
	select {
	case <-tw.restarted:
		t.Fatal("restart hook fired unexpectedly")
	case <-time.After(100 * time.Millisecond):
	}
}

// saveGroups runs a save request and returns the parsed response.
func (tw *testWorker) saveGroups(t *testing.T, groups ...string) payload.SaveResponseUI {
	t.Helper()

	request, err := json.Marshal(payload.SaveRequest{Passphrase: testPassphrase, GroupList: groups})
	if err != nil {
		t.Fatalf("marshaling save request: %v", err)
	}

	status, body := tw.RequestSave(t.Context(), request)

	var response payload.SaveResponseUI
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("parsing save response: %v", err)
	}
	if status != string(response.Status) {
		t.Fatalf("status string %q disagrees with body status %q", status, response.Status)
	}
	return response
}

// restoreRequestFor converts a save response into the matching v2.0
// restore request body.
func restoreRequestFor(t *testing.T, snapshot payload.SaveResponseUI) []byte {
	t.Helper()

	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		t.Fatalf("marshaling groups: %v", err)
	}
	request, err := json.Marshal(payload.RestoreRequest{
		Version:    "2.0",
		Checksum:   snapshot.Checksum,
		Passphrase: testPassphrase,
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshaling restore request: %v", err)
	}
	return request
}

// runRestore executes a restore request and returns the parsed
// response.
func (tw *testWorker) runRestore(t *testing.T, request []byte, force bool) (string, payload.RestoreResponseUI) {
	t.Helper()

	status, body := tw.RequestRestore(t.Context(), request, force)

	var response payload.RestoreResponseUI
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("parsing restore response: %v", err)
	}
	return status, response
}

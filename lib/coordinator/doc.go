// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package coordinator implements the SRR orchestration engine: the
// save fan-out, the versioned restore pipeline with per-group
// rollback, the restart arbiter, and the operator-facing dispatcher.
//
// The engine is driven through three entry points that mirror the
// operator API — RequestList, RequestSave, RequestRestore (plus the
// reserved RequestReset) — each returning the two-part reply the
// transport expects: a bare status string and a JSON body. Everything
// the engine knows about the fleet comes from the injected catalog;
// everything it does to the fleet goes through the injected bus.
//
// Requests are executed serially on the caller's goroutine. Agent
// RPCs inside one request are issued sequentially: the protocol does
// not require parallelism, and reasoning about rollback is simpler
// when per-group restore is strictly ordered.
package coordinator

// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus provides the request/response message bus the SRR
// coordinator uses to reach its agents.
//
// Agents listen on named queues. A request is an envelope carrying
// subject (the action), from, to (the agent name), a fresh
// correlation id, and opaque user data; the reply must echo the
// correlation id, which both implementations enforce. The wire
// framing is deterministic CBOR over a Unix socket per queue
// (SocketBus); tests use the in-process MemoryBus.
//
// Every transport failure surfaces as a *Error so callers can treat
// "the bus broke" as one condition regardless of implementation.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Actions carried in the envelope subject.
const (
	ActionSave    = "save"
	ActionRestore = "restore"
	ActionReset   = "reset"
)

// Message is the bus envelope.
type Message struct {
	// Subject is the requested action.
	Subject string `cbor:"subject"`

	// From is the sender's agent name.
	From string `cbor:"from"`

	// To is the addressed agent's name. Routing is by queue; To lets
	// an agent serving several names on one queue tell them apart.
	To string `cbor:"to"`

	// CorrelationID pairs a reply with its request. Request
	// implementations assign a fresh UUID when the caller leaves it
	// empty and reject replies that do not echo it.
	CorrelationID string `cbor:"correlation_id"`

	// UserData is the opaque request or reply body.
	UserData []byte `cbor:"user_data"`
}

// Bus issues one request and waits for the matching reply.
type Bus interface {
	// Request sends msg to the named queue and blocks until the reply
	// arrives, timeout elapses, or ctx is done. All failures are
	// returned as *Error.
	Request(ctx context.Context, queue string, msg Message, timeout time.Duration) (Message, error)
}

// Error wraps any transport failure on the bus.
type Error struct {
	Queue string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bus request to queue %q: %v", e.Queue, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewCorrelationID returns a fresh correlation id.
func NewCorrelationID() string {
	return uuid.NewString()
}

// fill assigns a correlation id when the caller left it empty.
func fill(msg Message) Message {
	if msg.CorrelationID == "" {
		msg.CorrelationID = NewCorrelationID()
	}
	return msg
}

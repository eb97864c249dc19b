// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Bus = (*MemoryBus)(nil)

// Handler answers one request on a MemoryBus queue.
type Handler func(msg Message) (Message, error)

// MemoryBus is an in-process Bus for tests. Handlers are registered
// per queue; every request is recorded so tests can assert on the
// exact traffic the engine produced (order, bodies, correlation).
type MemoryBus struct {
	mu       sync.Mutex
	handlers map[string]Handler
	fail     map[string]error
	requests []Message
}

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string]Handler),
		fail:     make(map[string]error),
	}
}

// Handle registers the handler answering requests on queue,
// replacing any previous one.
func (b *MemoryBus) Handle(queue string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[queue] = handler
}

// FailQueue makes every request to queue fail with err, simulating a
// transport fault. Pass nil to clear.
func (b *MemoryBus) FailQueue(queue string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.fail, queue)
		return
	}
	b.fail[queue] = err
}

// Requests returns a copy of every request seen, in send order.
func (b *MemoryBus) Requests() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *MemoryBus) Request(ctx context.Context, queue string, msg Message, _ time.Duration) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, &Error{Queue: queue, Err: err}
	}

	msg = fill(msg)

	b.mu.Lock()
	b.requests = append(b.requests, msg)
	injected := b.fail[queue]
	handler, ok := b.handlers[queue]
	b.mu.Unlock()

	if injected != nil {
		return Message{}, &Error{Queue: queue, Err: injected}
	}
	if !ok {
		return Message{}, &Error{Queue: queue, Err: fmt.Errorf("no agent on queue")}
	}

	reply, err := handler(msg)
	if err != nil {
		return Message{}, &Error{Queue: queue, Err: err}
	}

	if reply.CorrelationID == "" {
		reply.CorrelationID = msg.CorrelationID
	}
	if reply.CorrelationID != msg.CorrelationID {
		return Message{}, &Error{Queue: queue, Err: fmt.Errorf("correlation id mismatch: sent %s, got %s", msg.CorrelationID, reply.CorrelationID)}
	}
	if reply.From == "" {
		reply.From = msg.To
	}
	if reply.To == "" {
		reply.To = msg.From
	}
	return reply, nil
}

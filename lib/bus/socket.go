// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"time"

	"github.com/stark-dev/fty-srr-mg/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to a queue
// socket. Separate from the request timeout — it covers only the
// connect phase.
const dialTimeout = 5 * time.Second

// maxMessageSize is the maximum size of a single CBOR envelope in
// either direction. Snapshots of the reference fleet measure in tens
// of kilobytes; 1 MiB leaves room without letting a broken agent
// exhaust memory.
const maxMessageSize = 1024 * 1024

// wireReply is the transport-level reply frame: either a delivered
// envelope or a transport error from the serving side.
type wireReply struct {
	OK      bool     `cbor:"ok"`
	Error   string   `cbor:"error,omitempty"`
	Message *Message `cbor:"message,omitempty"`
}

// Compile-time interface check.
var _ Bus = (*SocketBus)(nil)

// SocketBus reaches agents over one Unix socket per queue, located at
// <dir>/<queue>.sock. Each request opens a fresh connection, writes
// the envelope, reads the reply, and closes — the serving side's
// one-request-per-connection model.
type SocketBus struct {
	dir string
}

// NewSocketBus creates a bus rooted at the queue socket directory.
func NewSocketBus(dir string) *SocketBus {
	return &SocketBus{dir: dir}
}

// QueuePath returns the socket path serving the named queue.
func (b *SocketBus) QueuePath(queue string) string {
	return filepath.Join(b.dir, queue+".sock")
}

func (b *SocketBus) Request(ctx context.Context, queue string, msg Message, timeout time.Duration) (Message, error) {
	reply, err := RequestPath(ctx, b.QueuePath(queue), msg, timeout)
	if err != nil {
		return Message{}, &Error{Queue: queue, Err: err}
	}
	return reply, nil
}

// RequestPath performs one request-response cycle against the socket
// at path. Used by SocketBus and by clients that hold a full socket
// path rather than a queue directory (the operator CLI).
func RequestPath(ctx context.Context, path string, msg Message, timeout time.Duration) (Message, error) {
	msg = fill(msg)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Message{}, fmt.Errorf("dialing %s: %w", path, err)
	}
	defer conn.Close()

	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return Message{}, fmt.Errorf("setting deadline: %w", err)
		}
	}

	if err := codec.NewEncoder(conn).Encode(msg); err != nil {
		return Message{}, fmt.Errorf("writing request: %w", err)
	}

	var reply wireReply
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&reply); err != nil {
		return Message{}, fmt.Errorf("reading reply: %w", err)
	}

	if !reply.OK {
		return Message{}, fmt.Errorf("remote error: %s", reply.Error)
	}
	if reply.Message == nil {
		return Message{}, fmt.Errorf("remote reply carries no message")
	}
	if reply.Message.CorrelationID != msg.CorrelationID {
		return Message{}, fmt.Errorf("correlation id mismatch: sent %s, got %s", msg.CorrelationID, reply.Message.CorrelationID)
	}
	return *reply.Message, nil
}

// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/stark-dev/fty-srr-mg/lib/codec"
)

// readTimeout is how long the server waits for the client to send its
// envelope. A well-behaved client sends it immediately after
// connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long the server waits for the reply write.
const writeTimeout = 10 * time.Second

// ServeFunc processes one envelope and returns the reply envelope.
// The server fills in correlation id and from/to when the handler
// leaves them empty. A returned error becomes a transport-level error
// frame on the wire.
type ServeFunc func(ctx context.Context, msg Message) (Message, error)

// Server serves one queue socket, dispatching envelopes by subject.
// Each connection handles exactly one request-response cycle.
//
// Register subjects with Handle before calling Serve.
type Server struct {
	socketPath string
	handlers   map[string]ServeFunc
	logger     *slog.Logger

	// active tracks in-flight handlers so Serve can drain them on
	// shutdown.
	active sync.WaitGroup
}

// NewServer creates a server that will listen on socketPath.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handlers:   make(map[string]ServeFunc),
		logger:     logger,
	}
}

// Handle registers a handler for the given subject. Panics on a
// duplicate subject.
func (s *Server) Handle(subject string, handler ServeFunc) {
	if _, exists := s.handlers[subject]; exists {
		panic(fmt.Sprintf("bus.Server: duplicate handler for subject %q", subject))
	}
	s.handlers[subject] = handler
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for active handlers to finish. Any stale socket
// file at the path is removed before listening, and the socket file
// is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("bus server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.active.Add(1)
		go func() {
			defer s.active.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.active.Wait()
	return nil
}

// handleConnection processes one request-response cycle.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// CBOR is self-delimiting, so no framing protocol is needed.
	// LimitReader caps a runaway client.
	var msg Message
	if err := codec.NewDecoder(io.LimitReader(conn, maxMessageSize)).Decode(&msg); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid envelope: %v", err))
		return
	}

	if msg.Subject == "" {
		s.writeError(conn, "missing envelope subject")
		return
	}

	handler, exists := s.handlers[msg.Subject]
	if !exists {
		s.writeError(conn, fmt.Sprintf("unknown subject %q", msg.Subject))
		return
	}

	reply, err := handler(ctx, msg)
	if err != nil {
		s.logger.Debug("handler failed",
			"subject", msg.Subject,
			"from", msg.From,
			"error", err,
		)
		s.writeError(conn, err.Error())
		return
	}

	if reply.Subject == "" {
		reply.Subject = msg.Subject
	}
	if reply.CorrelationID == "" {
		reply.CorrelationID = msg.CorrelationID
	}
	if reply.From == "" {
		reply.From = msg.To
	}
	if reply.To == "" {
		reply.To = msg.From
	}

	s.writeReply(conn, wireReply{OK: true, Message: &reply})
}

// writeError sends a transport error frame. Write failures are logged
// at debug level — the connection is closing regardless.
func (s *Server) writeError(conn net.Conn, message string) {
	s.writeReply(conn, wireReply{OK: false, Error: message})
}

func (s *Server) writeReply(conn net.Conn, reply wireReply) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Debug("failed to write reply", "error", err)
	}
}

// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryBusRequestReply(t *testing.T) {
	b := NewMemoryBus()
	b.Handle("Q.A", func(msg Message) (Message, error) {
		return Message{UserData: append([]byte("echo:"), msg.UserData...)}, nil
	})

	reply, err := b.Request(context.Background(), "Q.A", Message{
		Subject:  ActionSave,
		From:     "etn-srr",
		To:       "agent-a",
		UserData: []byte("hello"),
	}, time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if string(reply.UserData) != "echo:hello" {
		t.Fatalf("reply data: %q", reply.UserData)
	}
	if reply.From != "agent-a" || reply.To != "etn-srr" {
		t.Fatalf("reply addressing: from=%q to=%q", reply.From, reply.To)
	}
	if reply.CorrelationID == "" {
		t.Fatal("reply has no correlation id")
	}
}

func TestMemoryBusAssignsCorrelationID(t *testing.T) {
	b := NewMemoryBus()
	b.Handle("Q.A", func(msg Message) (Message, error) {
		return Message{}, nil
	})

	if _, err := b.Request(context.Background(), "Q.A", Message{Subject: ActionSave}, time.Second); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := b.Request(context.Background(), "Q.A", Message{Subject: ActionSave}, time.Second); err != nil {
		t.Fatalf("Request: %v", err)
	}

	requests := b.Requests()
	if len(requests) != 2 {
		t.Fatalf("recorded requests: got %d, want 2", len(requests))
	}
	if requests[0].CorrelationID == "" || requests[1].CorrelationID == "" {
		t.Fatal("request without correlation id")
	}
	if requests[0].CorrelationID == requests[1].CorrelationID {
		t.Fatal("correlation ids are not fresh per request")
	}
}

func TestMemoryBusCorrelationMismatch(t *testing.T) {
	b := NewMemoryBus()
	b.Handle("Q.A", func(msg Message) (Message, error) {
		return Message{CorrelationID: "bogus"}, nil
	})

	_, err := b.Request(context.Background(), "Q.A", Message{Subject: ActionSave}, time.Second)
	var busErr *Error
	if !errors.As(err, &busErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestMemoryBusNoHandler(t *testing.T) {
	b := NewMemoryBus()

	_, err := b.Request(context.Background(), "Q.GHOST", Message{Subject: ActionSave}, time.Second)
	var busErr *Error
	if !errors.As(err, &busErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if busErr.Queue != "Q.GHOST" {
		t.Fatalf("error queue: %q", busErr.Queue)
	}
}

func TestMemoryBusFailQueue(t *testing.T) {
	b := NewMemoryBus()
	b.Handle("Q.A", func(msg Message) (Message, error) {
		return Message{}, nil
	})
	b.FailQueue("Q.A", fmt.Errorf("cable unplugged"))

	_, err := b.Request(context.Background(), "Q.A", Message{Subject: ActionSave}, time.Second)
	var busErr *Error
	if !errors.As(err, &busErr) {
		t.Fatalf("expected *Error, got %v", err)
	}

	b.FailQueue("Q.A", nil)
	if _, err := b.Request(context.Background(), "Q.A", Message{Subject: ActionSave}, time.Second); err != nil {
		t.Fatalf("Request after clearing failure: %v", err)
	}
}

func TestMemoryBusCancelledContext(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Request(ctx, "Q.A", Message{Subject: ActionSave}, time.Second); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const catalogJSONC = `{
	// the demo fleet
	"agents": [
		{"name": "agent-a", "queue": "Q.A"},
		{"name": "agent-b", "queue": "Q.B"}, // trailing comma below is fine
	],
	"features": [
		{"id": "alpha", "description": "srr_alpha", "agent": "agent-a", "restart": true},
		{"id": "beta", "description": "srr_beta", "agent": "agent-b", "reset": true},
	],
	"groups": [
		{
			"id": "demo",
			"description": "srr_demo",
			"features": [
				{"feature": "alpha", "priority": 2},
				{"feature": "beta", "priority": 1},
			],
		},
	],
}`

func TestParseJSONC(t *testing.T) {
	c, err := Parse([]byte(catalogJSONC))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	alpha, ok := c.Feature("alpha")
	if !ok {
		t.Fatal("feature alpha missing")
	}
	if !alpha.Restart || alpha.Reset {
		t.Errorf("alpha flags: restart=%v reset=%v", alpha.Restart, alpha.Reset)
	}

	beta, _ := c.Feature("beta")
	if beta.Restart || !beta.Reset {
		t.Errorf("beta flags: restart=%v reset=%v", beta.Restart, beta.Reset)
	}

	if got := c.GroupOfFeature("beta"); got != "demo" {
		t.Errorf("GroupOfFeature(beta): got %q, want demo", got)
	}
	if got := c.PriorityOf("alpha"); got != 2 {
		t.Errorf("PriorityOf(alpha): got %d, want 2", got)
	}
	if queue, _ := c.Queue("agent-b"); queue != "Q.B" {
		t.Errorf("Queue(agent-b): got %q, want Q.B", queue)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.jsonc")
	if err := os.WriteFile(path, []byte(catalogJSONC), 0600); err != nil {
		t.Fatalf("writing catalog: %v", err)
	}

	c, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(c.Groups()) != 1 {
		t.Fatalf("Groups: got %d, want 1", len(c.Groups()))
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRejectsInvalidSeed(t *testing.T) {
	doc := `{"features": [{"id": "x", "agent": "ghost"}]}`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatal("expected error for feature with unrouted agent")
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	if _, err := Parse([]byte(`{"features": [`)); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

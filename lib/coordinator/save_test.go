// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stark-dev/fty-srr-mg/lib/catalog"
	"github.com/stark-dev/fty-srr-mg/lib/integrity"
	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// configOrder is the canonical feature order of the reference config
// group: descending priority, registration order on ties.
var configOrder = []string{"user-session", "notification", "monitoring", "discovery", "mass-mgmt", "automation-settings"}

func TestSaveConfigGroup(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	response := tw.saveGroups(t, "config")

	if response.Status != payload.StatusSuccess {
		t.Fatalf("status: got %s, error %q", response.Status, response.Error)
	}
	if len(response.Data) != 1 {
		t.Fatalf("groups: got %d, want 1", len(response.Data))
	}

	group := response.Data[0]
	if group.ID != "config" || group.Name != "config" {
		t.Fatalf("group identity: id=%q name=%q", group.ID, group.Name)
	}

	var order []string
	for _, entry := range group.Features {
		order = append(order, entry.Name)
	}
	if !slices.Equal(order, configOrder) {
		t.Fatalf("feature order: got %v, want %v", order, configOrder)
	}

	// The stored digest matches a recomputation over the returned
	// feature list.
	digest, err := integrity.Digest(group.Features)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if digest != group.DataIntegrity {
		t.Fatalf("digest: stored %s, recomputed %s", group.DataIntegrity, digest)
	}

	// The checksum decrypts back to the passphrase.
	plain, err := passphrase.Decrypt(response.Checksum, testPassphrase)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != testPassphrase {
		t.Fatalf("checksum round trip: got %q", plain)
	}
}

func TestSaveAllGroups(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	response := tw.saveGroups(t, "assets", "config", "security-wallet")

	if response.Status != payload.StatusSuccess {
		t.Fatalf("status: got %s", response.Status)
	}

	var ids []string
	for _, group := range response.Data {
		ids = append(ids, group.ID)
	}
	if !slices.Equal(ids, []string{"assets", "config", "security-wallet"}) {
		t.Fatalf("group ids: %v", ids)
	}
}

func TestSaveRejectsBadPassphrase(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	request, _ := json.Marshal(payload.SaveRequest{Passphrase: "short", GroupList: []string{"config"}})
	status, body := tw.RequestSave(t.Context(), request)

	if status != string(payload.StatusFailed) {
		t.Fatalf("status: got %s", status)
	}

	var response payload.SaveResponseUI
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !strings.Contains(response.Error, "Passphrase must have") {
		t.Fatalf("error: %q", response.Error)
	}

	// Nothing was sent to the fleet.
	if saved := tw.fleet.savedFeatures(); len(saved) != 0 {
		t.Fatalf("fleet saw save traffic: %v", saved)
	}
}

func TestSaveUnknownGroupIgnored(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	response := tw.saveGroups(t, "ghost")

	if response.Status != payload.StatusSuccess {
		t.Fatalf("status: got %s", response.Status)
	}
	if len(response.Data) != 0 {
		t.Fatalf("groups: got %+v, want none", response.Data)
	}
}

func TestSaveBusFailure(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())
	tw.fleet.bus.FailQueue("ETN.Q.IPMCORE.CONFIG", fmt.Errorf("broker down"))

	request, _ := json.Marshal(payload.SaveRequest{Passphrase: testPassphrase, GroupList: []string{"config"}})
	status, body := tw.RequestSave(t.Context(), request)

	if status != string(payload.StatusFailed) {
		t.Fatalf("status: got %s", status)
	}

	var response payload.SaveResponseUI
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if !strings.Contains(response.Error, "broker down") {
		t.Fatalf("error: %q", response.Error)
	}
}

func TestSaveDropsUngroupedFeatures(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	// The config agent volunteers a stray ungrouped feature in its
	// save reply; it cannot carry an integrity digest and is dropped.
	tw.fleet.setBlob("network", `{"feature":"network","state":"installed"}`)
	tw.fleet.extraSave["etn-malamute-config"] = "network"

	response := tw.saveGroups(t, "config")

	if response.Status != payload.StatusSuccess {
		t.Fatalf("status: got %s", response.Status)
	}
	for _, group := range response.Data {
		for _, entry := range group.Features {
			if entry.Name == "network" {
				t.Fatal("ungrouped feature leaked into the save payload")
			}
		}
	}
}

func TestSaveFeaturesSkipsUnknown(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	response, err := tw.SaveFeatures(t.Context(), []string{"discovery", "no-such-feature"}, testPassphrase)
	if err != nil {
		t.Fatalf("SaveFeatures: %v", err)
	}

	if _, ok := response.MapFeaturesData["discovery"]; !ok {
		t.Fatal("discovery missing from save response")
	}
	if _, ok := response.MapFeaturesData["no-such-feature"]; ok {
		t.Fatal("unknown feature present in save response")
	}
}

func TestSaveMalformedRequest(t *testing.T) {
	tw := newTestWorker(t, catalog.Default())

	status, body := tw.RequestSave(t.Context(), []byte("{not json"))

	if status != string(payload.StatusFailed) {
		t.Fatalf("status: got %s", status)
	}
	var response payload.SaveResponseUI
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if response.Error == "" {
		t.Fatal("no error reported for malformed request")
	}
}

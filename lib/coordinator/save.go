// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/integrity"
	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// groupFeaturesByAgent buckets features by their owning agent.
// Unknown features are dropped with a warning. Each bucket is sorted
// and deduplicated.
func (w *Worker) groupFeaturesByAgent(features []string) map[string][]string {
	byAgent := make(map[string][]string)
	for _, name := range features {
		desc, ok := w.catalog.Feature(name)
		if !ok {
			w.logger.Warn("feature not found", "feature", name)
			continue
		}
		byAgent[desc.Agent] = append(byAgent[desc.Agent], name)
	}
	for agent, list := range byAgent {
		slices.Sort(list)
		byAgent[agent] = slices.Compact(list)
	}
	return byAgent
}

// SaveFeatures collects a snapshot of the named features: one save
// RPC per owning agent, replies union-merged. A failed RPC aborts the
// whole save; the caller decides what that means.
func (w *Worker) SaveFeatures(ctx context.Context, features []string, pass string) (payload.SaveResponse, error) {
	byAgent := w.groupFeaturesByAgent(features)

	var response payload.SaveResponse
	for _, agent := range slices.Sorted(maps.Keys(byAgent)) {
		agentFeatures := byAgent[agent]
		w.logger.Debug("requesting save", "agent", agent, "features", agentFeatures)

		reply, err := w.send(ctx, agent, bus.ActionSave, payload.Query{
			Save: &payload.SaveQuery{Passphrase: pass, Features: agentFeatures},
		})
		if err != nil {
			return payload.SaveResponse{}, err
		}
		if reply.Save == nil {
			return payload.SaveResponse{}, fmt.Errorf("agent %s replied without save payload", agent)
		}

		response.Merge(*reply.Save)
		w.logger.Debug("save done", "agent", agent)
	}
	return response, nil
}

// RequestSave is the operator save entry point. The reply status is
// SUCCESS only when every step — passphrase check, fan-out, group
// assembly, integrity sealing — succeeded.
func (w *Worker) RequestSave(ctx context.Context, raw []byte) (string, []byte) {
	response := payload.SaveResponseUI{
		Version: w.version,
		Status:  payload.StatusFailed,
		Data:    []payload.Group{},
	}

	if err := w.requestSave(ctx, raw, &response); err != nil {
		response.Status = payload.StatusFailed
		response.Error = fmt.Sprintf("Exception on save configuration: (%v)", err)
		w.logger.Error("save failed", "error", err)
	}

	return string(response.Status), w.marshalBody(response)
}

func (w *Worker) requestSave(ctx context.Context, raw []byte, response *payload.SaveResponseUI) error {
	var request payload.SaveRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return fmt.Errorf("parsing save request: %w", err)
	}

	if !passphrase.Check(request.Passphrase) {
		response.Error = passphraseFormatError()
		w.logger.Error("save rejected", "error", response.Error)
		return nil
	}

	checksum, err := passphrase.Encrypt(request.Passphrase)
	if err != nil {
		return fmt.Errorf("computing checksum: %w", err)
	}
	response.Checksum = checksum

	w.logger.Debug("save processing", "groups", request.GroupList)

	var featuresToSave []string
	for _, groupID := range request.GroupList {
		group, ok := w.catalog.Group(groupID)
		if !ok {
			w.logger.Error("group not found", "group", groupID)
			continue
		}
		for _, fp := range group.Features {
			featuresToSave = append(featuresToSave, fp.Feature)
		}
	}

	saveResponse, err := w.SaveFeatures(ctx, featuresToSave, request.Passphrase)
	if err != nil {
		return err
	}

	// Route each returned feature into its owning group. Features
	// outside any group cannot carry an integrity digest and are
	// dropped from the payload.
	assembled := make(map[string]*payload.Group)
	for _, name := range slices.Sorted(maps.Keys(saveResponse.MapFeaturesData)) {
		entry := saveResponse.MapFeaturesData[name]

		groupID := w.catalog.GroupOfFeature(name)
		if groupID == "" {
			w.logger.Error("feature is not part of any group, dropped from save payload", "feature", name)
			continue
		}

		group := assembled[groupID]
		if group == nil {
			group = &payload.Group{ID: groupID, Name: groupID}
			assembled[groupID] = group
		}
		group.Features = append(group.Features, payload.FeatureEntry{Name: name, Data: entry})
	}

	for _, groupID := range slices.Sorted(maps.Keys(assembled)) {
		group := assembled[groupID]
		// Put the features in the group's registration order first, so
		// Seal's stable sort breaks priority ties by registration order.
		if entry, ok := w.catalog.Group(groupID); ok {
			position := make(map[string]int, len(entry.Features))
			for i, fp := range entry.Features {
				position[fp.Feature] = i
			}
			slices.SortStableFunc(group.Features, func(a, b payload.FeatureEntry) int {
				return position[a.Name] - position[b.Name]
			})
		}
		if err := integrity.Seal(group, w.catalog.PriorityOf); err != nil {
			return err
		}
		response.Data = append(response.Data, *group)
	}

	response.Status = payload.StatusSuccess
	return nil
}

// passphraseFormatError is the operator-visible passphrase rejection
// message, shared by save and list.
func passphraseFormatError() string {
	return fmt.Sprintf("Passphrase must have %s characters", passphrase.Format())
}

// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/stark-dev/fty-srr-mg/lib/bus"
	"github.com/stark-dev/fty-srr-mg/lib/catalog"
	"github.com/stark-dev/fty-srr-mg/lib/integrity"
	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// RestoreFeature sends one restore RPC for the named feature. A reply
// whose status is not SUCCESS becomes a *RestoreFailedError; the
// caller owns the rollback decision.
func (w *Worker) RestoreFeature(ctx context.Context, name string, query payload.RestoreQuery) (payload.RestoreResponse, error) {
	desc, ok := w.catalog.Feature(name)
	if !ok {
		return payload.RestoreResponse{}, fmt.Errorf("unknown feature %q", name)
	}

	w.logger.Debug("restoring feature", "feature", name, "agent", desc.Agent)

	reply, err := w.send(ctx, desc.Agent, bus.ActionRestore, payload.Query{Restore: &query})
	if err != nil {
		return payload.RestoreResponse{}, err
	}
	if reply.Restore == nil {
		return payload.RestoreResponse{}, fmt.Errorf("agent %s replied without restore payload", desc.Agent)
	}

	if !reply.Restore.Status.Status.OK() {
		return *reply.Restore, &RestoreFailedError{Feature: name, Reason: reply.Restore.Status.Error}
	}

	w.logger.Debug("feature restored", "feature", name, "agent", desc.Agent)
	return *reply.Restore, nil
}

// ResetFeature sends one reset RPC for the named feature.
func (w *Worker) ResetFeature(ctx context.Context, name string) error {
	desc, ok := w.catalog.Feature(name)
	if !ok {
		return fmt.Errorf("unknown feature %q", name)
	}

	reply, err := w.send(ctx, desc.Agent, bus.ActionReset, payload.Query{
		Reset: &payload.ResetQuery{Version: w.version, Features: []string{name}},
	})
	if err != nil {
		return err
	}
	if reply.Reset == nil {
		return fmt.Errorf("agent %s replied without reset payload", desc.Agent)
	}

	status, ok := reply.Reset.MapFeaturesStatus[name]
	if !ok || !status.Status.OK() {
		return &ResetFailedError{Feature: name, Reason: status.Error}
	}
	return nil
}

// resetIfSupported resets the feature when its descriptor says reset
// is supported. Reset errors never escape the feature loop: not every
// agent implements reset, so failures are logged and swallowed.
func (w *Worker) resetIfSupported(ctx context.Context, name string) {
	desc, ok := w.catalog.Feature(name)
	if !ok || !desc.Reset {
		return
	}
	w.logger.Debug("resetting feature", "feature", name)
	if err := w.ResetFeature(ctx, name); err != nil {
		w.logger.Warn("reset failed", "feature", name, "error", err)
	}
}

// RequestRestore is the operator restore entry point. force skips the
// integrity gate only; it never disables rollback. When any restored
// or rolled-back feature demands it, the delayed host restart is
// scheduled after the reply is built — never on the dispatch path.
func (w *Worker) RequestRestore(ctx context.Context, raw []byte, force bool) (string, []byte) {
	response := payload.RestoreResponseUI{
		Status:     payload.StatusFailed,
		StatusList: []payload.RestoreStatus{},
	}
	restart := false

	if err := w.requestRestore(ctx, raw, force, &response, &restart); err != nil {
		var integrityErr *IntegrityError
		if errors.As(err, &integrityErr) {
			response.Status = payload.StatusUnknown
		} else {
			response.Status = payload.StatusFailed
		}
		response.Error = err.Error()
		w.logger.Error("restore failed", "error", err)
	}

	body := w.marshalBody(response)

	if restart {
		go w.scheduleRestart()
	}

	return string(response.Status), body
}

func (w *Worker) requestRestore(ctx context.Context, raw []byte, force bool, response *payload.RestoreResponseUI, restart *bool) error {
	var request payload.RestoreRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return fmt.Errorf("parsing restore request: %w", err)
	}

	plain, err := passphrase.Decrypt(request.Checksum, request.Passphrase)
	if err != nil || plain != request.Passphrase {
		return ErrInvalidPassphrase
	}

	if !w.supportedVersion(request.Version) {
		return &InvalidVersionError{Version: request.Version}
	}

	switch request.Version {
	case "1.0":
		return w.restoreV1(ctx, &request, response, restart)
	case "2.0":
		return w.restoreV2(ctx, &request, force, response, restart)
	default:
		return &InvalidVersionError{Version: request.Version}
	}
}

// restoreV1 processes a flat feature list in payload order. The first
// restore rejection rolls back everything staged so far and fails the
// whole call.
func (w *Worker) restoreV1(ctx context.Context, request *payload.RestoreRequest, response *payload.RestoreResponseUI, restart *bool) error {
	features, err := request.FeatureList()
	if err != nil {
		return err
	}

	var rollbackState payload.SaveResponse

	for _, entry := range features {
		name := entry.Name

		query := payload.RestoreQuery{
			Passphrase:      request.Passphrase,
			MapFeaturesData: map[string]payload.Feature{name: entry.Data.Feature},
		}

		// Pre-save for rollback. A failure here is not fatal — the
		// feature simply will not be rolled back.
		w.logger.Debug("saving feature current state", "feature", name)
		saved, err := w.SaveFeatures(ctx, []string{name}, request.Passphrase)
		if err != nil {
			w.logger.Error("rollback save failed", "feature", name, "error", err)
		} else {
			rollbackState.Merge(saved)
		}

		w.resetIfSupported(ctx, name)

		result, err := w.RestoreFeature(ctx, name, query)
		if err != nil {
			var restoreErr *RestoreFailedError
			if errors.As(err, &restoreErr) {
				w.logger.Info("starting rollback")
				if w.Rollback(ctx, rollbackState, request.Passphrase) {
					*restart = true
				}
				return restoreErr
			}
			return err
		}

		response.StatusList = append(response.StatusList, payload.RestoreStatus{
			Name:   name,
			Status: result.Status.Status,
			Error:  result.Status.Error,
		})
		if desc, ok := w.catalog.Feature(name); ok && desc.Restart {
			*restart = true
		}
	}

	response.Status = payload.StatusSuccess
	return nil
}

// restoreV2 processes a group list: normalize ordering, gate on
// integrity, then run each group as an independent transaction. The
// overall status is SUCCESS when the orchestration ran, even if
// individual groups failed.
func (w *Worker) restoreV2(ctx context.Context, request *payload.RestoreRequest, force bool, response *payload.RestoreResponseUI, restart *bool) error {
	groups, err := request.GroupList()
	if err != nil {
		return err
	}

	// Canonical order: the digest and the restore phase both run over
	// features sorted by descending priority.
	for i := range groups {
		integrity.SortFeatures(groups[i].Features, w.catalog.PriorityOf)
	}

	if force {
		w.logger.Warn("restoring with force option: data integrity check will be skipped")
	} else {
		var failed []string
		for i := range groups {
			ok, err := integrity.Verify(groups[i])
			if err != nil {
				return err
			}
			if !ok {
				w.logger.Error("integrity check failed", "group", groups[i].ID)
				failed = append(failed, groups[i].ID)
			}
		}
		if len(failed) > 0 {
			return &IntegrityError{Groups: failed}
		}
	}

	for i := range groups {
		group := &groups[i]

		entry, ok := w.catalog.Group(group.ID)
		if !ok {
			w.logger.Error("group does not exist, will not be restored", "group", group.ID)
			continue
		}

		response.StatusList = append(response.StatusList,
			w.restoreGroup(ctx, group, entry, request.Passphrase, restart))
	}

	response.Status = payload.StatusSuccess
	return nil
}

// restoreGroup runs one group transaction: build queries (missing
// features short-circuit before any RPC), stage rollback snapshots,
// reset in ascending priority, restore in descending priority, and
// roll back on the first restore failure.
func (w *Worker) restoreGroup(ctx context.Context, group *payload.Group, entry catalog.GroupDescriptor, pass string, restart *bool) payload.RestoreStatus {
	// Restore order: the registry's feature list for the group,
	// sorted by descending priority (stable on registration order).
	ordered := make([]string, 0, len(entry.Features))
	for _, fp := range entry.Features {
		ordered = append(ordered, fp.Feature)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return w.catalog.PriorityOf(ordered[i]) > w.catalog.PriorityOf(ordered[j])
	})

	byName := make(map[string]payload.Feature, len(group.Features))
	for _, fe := range group.Features {
		byName[fe.Name] = fe.Data.Feature
	}

	// Build every restore query up front: a payload missing any
	// feature the registry requires fails the whole group before a
	// single RPC is sent.
	queries := make(map[string]payload.RestoreQuery, len(ordered))
	for _, name := range ordered {
		feature, ok := byName[name]
		if !ok {
			message := fmt.Sprintf("Group %s cannot be restored. Missing features", group.ID)
			w.logger.Error("missing features", "group", group.ID, "feature", name)
			return payload.RestoreStatus{Name: group.ID, Status: payload.StatusFailed, Error: message}
		}
		queries[name] = payload.RestoreQuery{
			Passphrase:      pass,
			MapFeaturesData: map[string]payload.Feature{name: feature},
		}
	}

	// Stage rollback snapshots, descending priority. Per-feature
	// failures only cost that feature its rollback.
	var rollbackState payload.SaveResponse
	for _, fe := range group.Features {
		w.logger.Debug("saving feature current state", "feature", fe.Name)
		saved, err := w.SaveFeatures(ctx, []string{fe.Name}, pass)
		if err != nil {
			w.logger.Error("rollback save failed", "feature", fe.Name, "error", err)
			continue
		}
		rollbackState.Merge(saved)
	}

	// Reset phase, reverse of the restore order.
	for i := len(group.Features) - 1; i >= 0; i-- {
		w.resetIfSupported(ctx, group.Features[i].Name)
	}

	// Restore phase, descending priority.
	status := payload.RestoreStatus{Name: group.ID, Status: payload.StatusSuccess}
	failed := false
	for _, name := range ordered {
		if _, err := w.RestoreFeature(ctx, name, queries[name]); err != nil {
			failed = true
			status.Status = payload.StatusFailed
			status.Error = fmt.Sprintf("Restore failed for feature %s: %v", name, err)
			w.logger.Error("restore failed, stopping group", "group", group.ID, "feature", name, "error", err)
			break
		}
		if desc, ok := w.catalog.Feature(name); ok && desc.Restart {
			*restart = true
		}
	}

	if failed {
		w.logger.Info("starting group rollback", "group", group.ID)
		if w.Rollback(ctx, rollbackState, pass) {
			*restart = true
		}
	}

	return status
}

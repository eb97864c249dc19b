// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"context"
	"maps"
	"slices"

	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// Rollback reinstalls every snapshot in saved, best effort: optional
// reset, then restore. A feature whose rollback fails is reported
// unrecoverable and iteration continues — rollback errors never
// escape this loop. The return value is the OR of the restart flags
// of every feature touched.
func (w *Worker) Rollback(ctx context.Context, saved payload.SaveResponse, pass string) bool {
	restart := false

	checksum, err := passphrase.Encrypt(pass)
	if err != nil {
		// The rollback query's checksum is informational for the
		// agent; the restore proceeds without it.
		w.logger.Error("computing rollback checksum", "error", err)
	}

	for _, name := range slices.Sorted(maps.Keys(saved.MapFeaturesData)) {
		entry := saved.MapFeaturesData[name]

		desc, ok := w.catalog.Feature(name)
		if !ok {
			w.logger.Error("unknown feature in rollback snapshot", "feature", name)
			continue
		}

		if desc.Reset {
			if err := w.ResetFeature(ctx, name); err != nil {
				w.logger.Warn("reset failed during rollback", "feature", name, "error", err)
			}
		}

		query := payload.RestoreQuery{
			Version:         w.version,
			Checksum:        checksum,
			Passphrase:      pass,
			MapFeaturesData: map[string]payload.Feature{name: entry.Feature},
		}

		w.logger.Debug("rolling back feature", "feature", name, "agent", desc.Agent)
		if _, err := w.RestoreFeature(ctx, name, query); err != nil {
			w.logger.Error("feature is unrecoverable, may be in undefined state", "feature", name, "error", err)
		} else {
			w.logger.Debug("feature rolled back", "feature", name, "agent", desc.Agent)
		}

		restart = restart || desc.Restart
	}

	return restart
}

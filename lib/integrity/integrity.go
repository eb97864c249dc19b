// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package integrity computes and verifies the per-group data
// integrity digest: sha256 over the canonical JSON of the group's
// priority-sorted feature list.
//
// The digest is bound to a specific ordering. Seal establishes that
// ordering (descending priority, stable on ties) before hashing;
// Verify hashes the list in its current order, so callers must sort
// first when the payload arrived unordered.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// Sha256Hex returns the lowercase hex sha256 of data. 64 characters,
// deterministic.
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SortFeatures orders features by descending priority. The sort is
// stable: equal priorities keep their registration order, which is
// what the digest was computed over at save time.
func SortFeatures(features []payload.FeatureEntry, priorityOf func(string) uint) {
	sort.SliceStable(features, func(i, j int) bool {
		return priorityOf(features[i].Name) > priorityOf(features[j].Name)
	})
}

// Digest computes the integrity digest over the feature list in its
// current order.
func Digest(features []payload.FeatureEntry) (string, error) {
	data, err := payload.CanonicalFeatureList(features)
	if err != nil {
		return "", err
	}
	return Sha256Hex(data), nil
}

// Seal sorts the group's features into canonical order and attaches
// the digest computed over that order.
func Seal(group *payload.Group, priorityOf func(string) uint) error {
	SortFeatures(group.Features, priorityOf)
	digest, err := Digest(group.Features)
	if err != nil {
		return fmt.Errorf("sealing group %s: %w", group.ID, err)
	}
	group.DataIntegrity = digest
	return nil
}

// Verify recomputes the digest over the group's current feature order
// and compares it to the stored value.
func Verify(group payload.Group) (bool, error) {
	digest, err := Digest(group.Features)
	if err != nil {
		return false, fmt.Errorf("verifying group %s: %w", group.ID, err)
	}
	return digest == group.DataIntegrity, nil
}

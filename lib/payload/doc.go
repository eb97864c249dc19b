// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload defines the wire types exchanged by the SRR
// coordinator: the agent protocol carried as bus user data
// (save/restore/reset queries and their replies) and the operator
// protocol carried as JSON (list/save/restore requests and
// responses).
//
// The feature blob inside a snapshot is opaque to the coordinator: it
// is stored and forwarded as raw JSON, never reserialized, because
// the group integrity digest is computed over the exact bytes the
// owning agent produced. CanonicalFeatureList is the one place that
// defines the digest input format.
package payload

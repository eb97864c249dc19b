// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package payload

// Status is the outcome vocabulary shared by the agent and operator
// protocols. The string values are part of the wire format.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusFailed         Status = "FAILED"
	StatusUnknown        Status = "UNKNOWN"
	StatusInProgress     Status = "IN_PROGRESS"
	StatusPartialSuccess Status = "PARTIAL_SUCCESS"
)

// OK reports whether the status is a full success.
func (s Status) OK() bool { return s == StatusSuccess }

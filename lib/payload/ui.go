// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"encoding/json"
	"fmt"
)

// FeatureEntry is one feature inside a saved group: the feature name
// plus its snapshot-and-status pair. The order of entries inside a
// group is significant — the integrity digest is bound to it.
type FeatureEntry struct {
	Name string           `json:"name"`
	Data FeatureAndStatus `json:"data"`
}

// Group is a saved group as it appears in snapshots: the ordered
// feature list plus the integrity digest computed over it.
type Group struct {
	ID            string         `json:"group_id"`
	Name          string         `json:"group_name"`
	Features      []FeatureEntry `json:"features"`
	DataIntegrity string         `json:"data_integrity"`
}

// CanonicalFeatureList returns the byte sequence the integrity digest
// is computed over: the feature entries marshaled as a JSON array in
// the given order, blobs verbatim. Every SRR implementation must
// reproduce these exact bytes or integrity checks break across
// implementations.
func CanonicalFeatureList(features []FeatureEntry) ([]byte, error) {
	if features == nil {
		features = []FeatureEntry{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("marshaling canonical feature list: %w", err)
	}
	return data, nil
}

// FeatureInfo describes one feature in the list response.
type FeatureInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GroupInfo describes one group in the list response.
type GroupInfo struct {
	ID          string        `json:"group_id"`
	Name        string        `json:"group_name"`
	Description string        `json:"description"`
	Features    []FeatureInfo `json:"features"`
}

// ListResponse is the reply to the operator list request.
type ListResponse struct {
	Version               string      `json:"version"`
	PassphraseDescription string      `json:"passphrase_description"`
	PassphraseValidation  string      `json:"passphrase_validation"`
	Groups                []GroupInfo `json:"groups"`
}

// SaveRequest is the operator save request.
type SaveRequest struct {
	Passphrase string   `json:"passphrase"`
	GroupList  []string `json:"group_list"`
}

// SaveResponseUI is the operator save reply: the snapshot itself.
// Its JSON form, fed back unchanged, is a valid v2.0 restore request
// once the passphrase field is filled in.
type SaveResponseUI struct {
	Version  string  `json:"version"`
	Checksum string  `json:"checksum,omitempty"`
	Status   Status  `json:"status"`
	Error    string  `json:"error,omitempty"`
	Data     []Group `json:"data"`
}

// RestoreRequest is the operator restore request. Data's shape
// depends on Version: a flat feature array for "1.0", a group array
// for "2.0". Force is an operator override that skips integrity
// verification only.
type RestoreRequest struct {
	Version    string          `json:"version"`
	Checksum   string          `json:"checksum"`
	Passphrase string          `json:"passphrase"`
	Force      bool            `json:"force,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// FeatureList decodes Data as the v1.0 flat feature list.
func (r *RestoreRequest) FeatureList() ([]FeatureEntry, error) {
	var features []FeatureEntry
	if err := json.Unmarshal(r.Data, &features); err != nil {
		return nil, fmt.Errorf("parsing restore data as feature list: %w", err)
	}
	return features, nil
}

// GroupList decodes Data as the v2.0 group list.
func (r *RestoreRequest) GroupList() ([]Group, error) {
	var groups []Group
	if err := json.Unmarshal(r.Data, &groups); err != nil {
		return nil, fmt.Errorf("parsing restore data as group list: %w", err)
	}
	return groups, nil
}

// RestoreStatus is one entry of the restore status list: a feature
// for v1.0, a whole group for v2.0.
type RestoreStatus struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RestoreResponseUI is the operator restore reply.
type RestoreResponseUI struct {
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	StatusList []RestoreStatus `json:"status_list"`
}

// OperatorReply is the two-part reply every operator entry point
// produces: the bare status string for transport-level routing plus
// the full JSON body.
type OperatorReply struct {
	Status string          `json:"status" cbor:"status"`
	Body   json.RawMessage `json:"payload" cbor:"payload"`
}

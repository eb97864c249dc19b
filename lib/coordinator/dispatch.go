// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
	"github.com/stark-dev/fty-srr-mg/lib/payload"
)

// RequestList is the operator list entry point. It never fails; an
// empty registry yields an empty group list.
func (w *Worker) RequestList() (string, []byte) {
	response := payload.ListResponse{
		Version:               w.version,
		PassphraseDescription: passphraseFormatError(),
		PassphraseValidation:  passphrase.Format(),
		Groups:                []payload.GroupInfo{},
	}

	for _, group := range w.catalog.Groups() {
		info := payload.GroupInfo{
			ID:          group.ID,
			Name:        group.ID,
			Description: group.Description,
			Features:    []payload.FeatureInfo{},
		}
		for _, fp := range group.Features {
			desc, _ := w.catalog.Feature(fp.Feature)
			info.Features = append(info.Features, payload.FeatureInfo{
				Name:        fp.Feature,
				Description: desc.Description,
			})
		}
		response.Groups = append(response.Groups, info)
	}

	return string(payload.StatusSuccess), w.marshalBody(response)
}

// RequestReset is reserved: resetting the fleet from the operator UI
// is not implemented yet.
func (w *Worker) RequestReset(raw []byte) (string, []byte) {
	response := map[string]string{
		"status": string(payload.StatusFailed),
		"error":  ErrNotImplemented.Error(),
	}
	return string(payload.StatusFailed), w.marshalBody(response)
}

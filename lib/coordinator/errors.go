// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPassphrase reports that the checksum's decrypt round-trip
// disagreed with the supplied passphrase. No side effects have
// happened when it is returned.
var ErrInvalidPassphrase = errors.New("invalid passphrase")

// ErrNotImplemented is returned by the reserved reset entry point.
var ErrNotImplemented = errors.New("not implemented yet")

// InvalidVersionError reports a restore payload version outside the
// supported set.
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid SRR version %q", e.Version)
}

// IntegrityError reports the groups whose integrity digest did not
// match. Surfaced to the operator as status UNKNOWN to distinguish a
// suspect payload from a real restore failure.
type IntegrityError struct {
	Groups []string
}

func (e *IntegrityError) Error() string {
	return "data integrity check failed for groups: " + strings.Join(e.Groups, " ")
}

// RestoreFailedError reports that an agent rejected the restore of a
// feature. It triggers rollback of the enclosing group (or of the
// whole payload for version 1.0).
type RestoreFailedError struct {
	Feature string
	Reason  string
}

func (e *RestoreFailedError) Error() string {
	return fmt.Sprintf("restore procedure failed for feature %s", e.Feature)
}

// ResetFailedError reports a failed per-feature reset. Always
// non-fatal: callers log it and continue.
type ResetFailedError struct {
	Feature string
	Reason  string
}

func (e *ResetFailedError) Error() string {
	return fmt.Sprintf("reset procedure failed for feature %s", e.Feature)
}

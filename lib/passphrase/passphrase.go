// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

// Package passphrase provides the checksum scheme that binds a
// snapshot to the passphrase it was saved with.
//
// The checksum stored in a snapshot is the passphrase age-encrypted
// with itself as the scrypt passphrase, base64-armored. Restore
// recovers the plaintext with the operator-supplied passphrase and
// compares: a round trip that disagrees means the wrong passphrase,
// a corrupted checksum, or both. The scheme proves knowledge of the
// passphrase; confidentiality of the feature blobs is the owning
// agents' concern.
package passphrase

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"filippo.io/age"
)

// Length bounds for operator passphrases.
const (
	MinLength = 8
	MaxLength = 32
)

// scryptWorkFactor is the log2 work factor for the age scrypt
// recipient. The default (18) costs around a second per operation;
// save fans out one encryption and restore one decryption per call,
// and the operator is waiting, so the interactive-grade factor is
// used.
const scryptWorkFactor = 15

// Format returns the human-readable passphrase rule used in operator
// error messages.
func Format() string {
	return fmt.Sprintf("%d to %d", MinLength, MaxLength)
}

// Check reports whether s satisfies the passphrase format: MinLength
// to MaxLength printable ASCII characters.
func Check(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// Encrypt produces the snapshot checksum for p: p encrypted with
// itself, base64-armored.
func Encrypt(p string) (string, error) {
	recipient, err := age.NewScryptRecipient(p)
	if err != nil {
		return "", fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(scryptWorkFactor)

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, p); err != nil {
		return "", fmt.Errorf("encrypting passphrase: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Decrypt recovers the plaintext from a checksum using passphrase p.
// Any armor or decryption failure is an error; the caller treats it
// the same as a round-trip mismatch.
func Decrypt(checksum, p string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(checksum)
	if err != nil {
		return "", fmt.Errorf("decoding checksum: %w", err)
	}

	identity, err := age.NewScryptIdentity(p)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting checksum: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("reading decrypted checksum: %w", err)
	}
	return string(plaintext), nil
}

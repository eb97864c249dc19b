// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/stark-dev/fty-srr-mg/lib/passphrase"
)

// resolvePassphrase picks the passphrase from the flag, the
// environment, or an interactive no-echo prompt, in that order. For
// restore the format check is skipped: old snapshots may predate the
// current rule and are still decryptable.
func resolvePassphrase(flagValue string, restoring bool) (string, error) {
	secret := flagValue
	if secret == "" {
		secret = os.Getenv(envPassphrase)
	}
	if secret == "" {
		var err error
		secret, err = promptPassphrase()
		if err != nil {
			return "", err
		}
	}

	if !restoring && !passphrase.Check(secret) {
		return "", fmt.Errorf("passphrase must have %s characters", passphrase.Format())
	}
	return secret, nil
}

// promptPassphrase reads the passphrase from the terminal without
// echo.
func promptPassphrase() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no passphrase given and stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(secret), nil
}

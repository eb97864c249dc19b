// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic identifies a zstd frame, so plain-JSON snapshots restore
// regardless of file extension.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// readSnapshot reads a snapshot file, transparently decompressing
// zstd frames.
func readSnapshot(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening zstd snapshot %s: %w", path, err)
	}
	defer decoder.Close()

	plain, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing snapshot %s: %w", path, err)
	}
	return plain, nil
}

// writeSnapshot writes a snapshot file, zstd-compressed when the path
// ends in .zst.
func writeSnapshot(path string, data []byte) error {
	out := data

	if strings.HasSuffix(path, ".zst") {
		var compressed bytes.Buffer
		encoder, err := zstd.NewWriter(&compressed)
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		if _, err := encoder.Write(data); err != nil {
			encoder.Close()
			return fmt.Errorf("compressing snapshot: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("finalizing snapshot compression: %w", err)
		}
		out = compressed.Bytes()
	}

	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

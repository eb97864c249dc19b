// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Parse builds a Catalog from a JSONC catalog document: JSON extended
// with // line comments, /* block comments */, and trailing commas.
// Fleet catalogs are authored by hand, and the comments carry the
// operational notes (which agent owns what, why a feature is
// ungrouped) that a plain JSON file would lose.
func Parse(data []byte) (*Catalog, error) {
	stripped := jsonc.ToJSON(data)

	var seed Seed
	if err := json.Unmarshal(stripped, &seed); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	return New(seed)
}

// ParseFile reads a JSONC catalog file from disk.
func ParseFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"bytes"
	"encoding/gob"
)

// Clone returns a deep copy of the configuration. Uses gob encoding to
// avoid issues with JSON field-name transformations and to keep unexported
// invariants (slice backing arrays, nested structs) fully independent of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	dec := gob.NewDecoder(&buf)

	if err := enc.Encode(c); err != nil {
		return nil
	}

	var clone Config
	if err := dec.Decode(&clone); err != nil {
		return nil
	}

	return &clone
}

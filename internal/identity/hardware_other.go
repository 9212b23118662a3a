// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux && !darwin
// +build !linux,!darwin

package identity

import "github.com/privarion/privariond/internal/errors"

// UnsupportedHardwareIdentifierEngine reports every query as unavailable on
// platforms with no wired hardware-identifier source.
type UnsupportedHardwareIdentifierEngine struct{}

// NewHardwareIdentifierEngine returns the platform's HardwareIdentifierEngine.
func NewHardwareIdentifierEngine() HardwareIdentifierEngine {
	return UnsupportedHardwareIdentifierEngine{}
}

func (UnsupportedHardwareIdentifierEngine) CurrentValue(t Type) (string, error) {
	return "", errors.Codedf(errors.KindUnavailable, errors.CodeSystemStartupFailed, "hardware identifier queries are not supported on this platform (type %q)", t)
}

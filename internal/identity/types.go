// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package identity mediates mutations of persistent system identifiers
// (hostname, MAC address, serial number, disk UUID, network interface
// name). It owns the live spoofed-value bindings consulted by the syscall
// interposers; every mutation is recorded in the backup store before it
// takes effect.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/privarion/privariond/internal/errors"
	"github.com/privarion/privariond/internal/netutil"
	"github.com/privarion/privariond/internal/validation"
)

// Type is the compile-time-fixed set of identifiers the manager can spoof.
type Type string

const (
	Hostname         Type = "hostname"
	MACAddress       Type = "macAddress"
	SerialNumber     Type = "serialNumber"
	DiskUUID         Type = "diskUUID"
	NetworkInterface Type = "networkInterface"
)

// Types lists every recognized identity type, in a stable order.
var Types = []Type{Hostname, MACAddress, SerialNumber, DiskUUID, NetworkInterface}

func (t Type) Valid() bool {
	switch t {
	case Hostname, MACAddress, SerialNumber, DiskUUID, NetworkInterface:
		return true
	default:
		return false
	}
}

var hostnameLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
var serialRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ValidateValue checks value against the format required for t, per the
// spoofing manager's documented value formats.
func ValidateValue(t Type, value string) error {
	switch t {
	case Hostname:
		return validateHostname(value)
	case MACAddress:
		return validateMAC(value)
	case SerialNumber:
		if value == "" || !serialRegex.MatchString(value) {
			return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid serial number: %q (must be non-empty alphanumeric)", value)
		}
		return nil
	case DiskUUID:
		if _, err := uuid.Parse(value); err != nil {
			return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid disk UUID: %q", value)
		}
		return nil
	case NetworkInterface:
		if err := validation.ValidateInterfaceName(value); err != nil {
			return errors.WrapCoded(err, errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid network interface name")
		}
		return nil
	default:
		return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityType, "unrecognized identity type: %q", t)
	}
}

func validateHostname(value string) error {
	if len(value) < 1 || len(value) > 255 {
		return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid hostname length: %d (must be 1..255)", len(value))
	}
	for _, label := range strings.Split(value, ".") {
		if label == "" {
			continue
		}
		if !hostnameLabelRegex.MatchString(label) {
			return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid hostname label %q (must be RFC-1123)", label)
		}
	}
	return nil
}

func validateMAC(value string) error {
	mac, err := netutil.ParseMAC(value)
	if err != nil || len(mac) != 6 {
		return errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityValue, "invalid MAC address: %q", value)
	}
	return nil
}

// Binding is the currently presented value for an identity type, installed
// at spoof time and removed on rollback. At most one binding exists per
// type per process.
type Binding struct {
	Type  Type
	Value string
}

// HardwareIdentifierEngine is the platform-specific leaf that queries the
// live, unspoofed value of each identity type.
type HardwareIdentifierEngine interface {
	CurrentValue(t Type) (string, error)
}

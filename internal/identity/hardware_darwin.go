// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build darwin
// +build darwin

package identity

import (
	"net"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/privarion/privariond/internal/errors"
)

// DarwinHardwareIdentifierEngine queries live identifier values from the
// running macOS host via sysctl and ioreg, the platform's analogues of
// Linux's /sys/class/dmi tree.
type DarwinHardwareIdentifierEngine struct{}

// NewHardwareIdentifierEngine returns the platform's HardwareIdentifierEngine.
func NewHardwareIdentifierEngine() HardwareIdentifierEngine {
	return DarwinHardwareIdentifierEngine{}
}

func (DarwinHardwareIdentifierEngine) CurrentValue(t Type) (string, error) {
	switch t {
	case Hostname:
		name, err := unix.Sysctl("kern.hostname")
		if err != nil {
			return "", errors.Wrap(err, errors.KindUnavailable, "sysctl kern.hostname")
		}
		return name, nil
	case MACAddress:
		return primaryInterfaceMAC()
	case SerialNumber:
		return ioregField("IOPlatformSerialNumber")
	case DiskUUID:
		return ioregField("IOPlatformUUID")
	case NetworkInterface:
		return primaryInterfaceName()
	default:
		return "", errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityType, "unrecognized identity type: %q", t)
	}
}

func primaryInterfaceMAC() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "list interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) != 6 {
			continue
		}
		return iface.HardwareAddr.String(), nil
	}
	return "", errors.New(errors.KindUnavailable, "no hardware interface with a MAC address found")
}

func primaryInterfaceName() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "list interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		return iface.Name, nil
	}
	return "", errors.New(errors.KindUnavailable, "no active non-loopback interface found")
}

// ioregField shells out to ioreg and extracts a quoted field value from the
// root platform expert entry, e.g. `"IOPlatformUUID" = "ABCD-1234"`.
func ioregField(key string) (string, error) {
	out, err := exec.Command("ioreg", "-rd1", "-c", "IOPlatformExpertDevice").Output()
	if err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "ioreg")
	}
	marker := "\"" + key + "\" = \""
	idx := strings.Index(string(out), marker)
	if idx < 0 {
		return "", errors.Codedf(errors.KindUnavailable, errors.CodeInvalidIdentityValue, "ioreg output missing %s", key)
	}
	rest := string(out)[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return "", errors.Codedf(errors.KindUnavailable, errors.CodeInvalidIdentityValue, "malformed ioreg output for %s", key)
	}
	return rest[:end], nil
}

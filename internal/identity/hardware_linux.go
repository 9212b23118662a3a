// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package identity

import (
	"bytes"
	"net"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/privarion/privariond/internal/errors"
)

// LinuxHardwareIdentifierEngine queries live identifier values from the
// running Linux host: the uname nodename, the primary interface's MAC,
// the DMI product serial, the first UUID blkid reports, and the name of
// the first up, non-loopback interface.
type LinuxHardwareIdentifierEngine struct{}

// NewHardwareIdentifierEngine returns the platform's HardwareIdentifierEngine.
func NewHardwareIdentifierEngine() HardwareIdentifierEngine {
	return LinuxHardwareIdentifierEngine{}
}

func (LinuxHardwareIdentifierEngine) CurrentValue(t Type) (string, error) {
	switch t {
	case Hostname:
		var uts unix.Utsname
		if err := unix.Uname(&uts); err != nil {
			return "", errors.Wrap(err, errors.KindUnavailable, "uname")
		}
		return charsToString(uts.Nodename[:]), nil
	case MACAddress:
		return primaryInterfaceMAC()
	case SerialNumber:
		return readDMIField("/sys/class/dmi/id/product_serial")
	case DiskUUID:
		return readDiskUUID()
	case NetworkInterface:
		return primaryInterfaceName()
	default:
		return "", errors.Codedf(errors.KindValidation, errors.CodeInvalidIdentityType, "unrecognized identity type: %q", t)
	}
}

func charsToString(in []byte) string {
	end := bytes.IndexByte(in, 0)
	if end < 0 {
		end = len(in)
	}
	return string(in[:end])
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

func readDMIField(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "read DMI field")
	}
	return strings.TrimSpace(string(data)), nil
}

func readDiskUUID() (string, error) {
	out, err := exec.Command("blkid", "-s", "UUID", "-o", "value").Output()
	if err != nil {
		return "", errors.Wrap(err, errors.KindUnavailable, "blkid")
	}
	lines := strings.Fields(string(out))
	if len(lines) == 0 {
		return "", errors.New(errors.KindUnavailable, "no disk UUID reported by blkid")
	}
	return lines[0], nil
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package tunnel

import "golang.zx2c4.com/wireguard/tun"

// Device is the narrow slice of wireguard-go's tun.Device this package
// depends on, so tests can substitute a fake without standing up a real
// kernel TUN interface (which needs elevated privileges).
type Device interface {
	Read(bufs [][]byte, sizes []int, offset int) (int, error)
	Write(bufs [][]byte, offset int) (int, error)
	Close() error
	MTU() (int, error)
	Name() (string, error)
	BatchSize() int
}

// DeviceFactory creates the host tunnel device for name at the given MTU.
type DeviceFactory func(name string, mtu int) (Device, error)

// RealDeviceFactory stands up an actual kernel TUN device via
// wireguard-go's tun package.
func RealDeviceFactory(name string, mtu int) (Device, error) {
	return tun.CreateTUN(name, mtu)
}

//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

// DeviceFactory creates the platform BLE device (allows for mocking in tests)
var DeviceFactory = func() (ble.Device, error) {
	return linux.NewDevice()
}

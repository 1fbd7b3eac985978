//go:build darwin

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
)

// DeviceFactory creates the platform BLE device (allows for mocking in tests)
var DeviceFactory = func() (ble.Device, error) {
	return darwin.NewDevice()
}

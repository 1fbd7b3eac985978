//go:build !darwin

package main

const (
	exampleDeviceAddress = "C4:7C:8D:6A:12:0F"
	deviceAddressNote    = "Device address format: MAC address, colon separated"
)

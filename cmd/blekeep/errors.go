package main

import (
	"errors"
	"fmt"

	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/lua"
)

// Command-level errors
var (
	// ErrNoCharacteristics is returned by watch when no --char was given.
	ErrNoCharacteristics = errors.New("specify at least one characteristic with --char service/characteristic")
)

// FormatUserError renders err for a terminal user.
func FormatUserError(err error) string {
	var luaErr *lua.LuaError
	switch {
	case device.IsBluetoothOff(err):
		return "Bluetooth is turned off. Turn it on and try again."
	case errors.Is(err, device.ErrUnsupported):
		return fmt.Sprintf("BLE is not supported here: %v", err)
	case errors.As(err, &luaErr):
		if luaErr.Line > 0 {
			return fmt.Sprintf("--until %s error at line %d: %s", luaErr.Type, luaErr.Line, luaErr.Message)
		}
		return fmt.Sprintf("--until %s error: %s", luaErr.Type, luaErr.Message)
	case errors.Is(err, device.ErrAborted):
		return fmt.Sprintf("stopped: %v", err)
	default:
		return err.Error()
	}
}

package session

import "github.com/srg/blekeep/internal/device"

// Callback is supplied by the application and driven by a Connection.
// All methods run on the connection's worker goroutine, never concurrently.
//
// OnConnected runs once discovery succeeded; OnUpdate once per drained
// channel value; OnLoop once per poll iteration, where returning true ends
// the session normally. Any error ends the attempt and is reported as is.
type Callback interface {
	OnConnected(gatt device.Controller) error
	OnUpdate(gatt device.Controller, channel string, data []byte) error
	OnLoop(gatt device.Controller) (bool, error)
}

// CallbackFuncs adapts plain functions to Callback. Nil members are no-ops
// and a nil Loop never ends the session.
type CallbackFuncs struct {
	Connected func(gatt device.Controller) error
	Update    func(gatt device.Controller, channel string, data []byte) error
	Loop      func(gatt device.Controller) (bool, error)
}

func (f CallbackFuncs) OnConnected(gatt device.Controller) error {
	if f.Connected == nil {
		return nil
	}
	return f.Connected(gatt)
}

func (f CallbackFuncs) OnUpdate(gatt device.Controller, channel string, data []byte) error {
	if f.Update == nil {
		return nil
	}
	return f.Update(gatt, channel, data)
}

func (f CallbackFuncs) OnLoop(gatt device.Controller) (bool, error) {
	if f.Loop == nil {
		return false, nil
	}
	return f.Loop(gatt)
}

// AbortFunc reports whether the current attempt has to stop. It is polled at
// every suspension point.
type AbortFunc func() bool

func never() bool { return false }

package device

import "context"

// Status is the platform status code attached to link and discovery events.
type Status int

const (
	StatusSuccess Status = 0
	// StatusFailure mirrors the generic GATT failure code.
	StatusFailure Status = 0x101
)

func (s Status) OK() bool { return s == StatusSuccess }

// DeviceRef is a resolved peripheral ready to be connected.
type DeviceRef struct {
	Address string
	Name    string
}

// TransportEvents receives asynchronous notifications from a Transport.
// A transport never delivers two events for the same session concurrently.
type TransportEvents interface {
	OnConnectionStateChanged(connected bool, status Status)
	OnDiscoveryComplete(status Status)
	OnChannelValue(channel string, data []byte)
}

// Transport is the platform GATT capability a session drives.
//
// Resolve and BeginConnect are called once per attempt from the session's
// worker. RequestRead and RequestNotify return false when the characteristic
// is not present; the value arrives later through OnChannelValue, keyed by the
// normalized characteristic UUID. DisconnectAndClose is idempotent.
type Transport interface {
	Resolve(address string) (DeviceRef, error)
	BeginConnect(ctx context.Context, ref DeviceRef, events TransportEvents) error
	RequestRead(service, characteristic string) bool
	RequestNotify(service, characteristic string) bool
	DisconnectAndClose() error
}

// TransportFactory creates a fresh transport for every connection attempt.
type TransportFactory func() (Transport, error)

// Controller is the handle callbacks use to issue requests on the live
// connection. It is only valid inside the callback invocation that received it.
type Controller interface {
	Address() string
	RequestRead(service, characteristic string) bool
	RequestNotify(service, characteristic string) bool
}

package goble

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/groutine"
)

// DefaultShutdownTimeout bounds how long DisconnectAndClose waits for the
// transport's goroutines to exit.
const DefaultShutdownTimeout = 2 * time.Second

// Client is the subset of ble.Client the transport drives.
type Client interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	Unsubscribe(c *ble.Characteristic, ind bool) error
	CancelConnection() error
}

// Dial opens the GATT link (allows for mocking in tests)
var Dial = func(ctx context.Context, dev ble.Device, addr ble.Addr) (Client, error) {
	return dev.Dial(ctx, addr)
}

// Transport implements device.Transport on top of go-ble.
// One Transport serves exactly one connection attempt.
type Transport struct {
	logger *logrus.Logger

	mu         sync.Mutex
	dev        ble.Device
	client     Client
	profile    *ble.Profile
	subscribed []*ble.Characteristic
	ctx        context.Context
	cancel     context.CancelFunc
	done       []<-chan struct{}
	closed     bool

	// serializes event delivery
	eventsMu sync.Mutex
	events   device.TransportEvents

	closeOnce sync.Once
	closeErr  error
}

// NewTransport creates an unconnected transport.
func NewTransport(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Transport{logger: logger}
}

// Factory returns a device.TransportFactory handing out go-ble transports.
func Factory(logger *logrus.Logger) device.TransportFactory {
	return func() (device.Transport, error) {
		return NewTransport(logger), nil
	}
}

// Resolve creates the platform BLE device, released by DisconnectAndClose.
// Peripherals are addressed directly, so the returned ref carries the
// address unchanged.
func (t *Transport) Resolve(address string) (device.DeviceRef, error) {
	if address == "" {
		return device.DeviceRef{}, device.NewConnectFailed("empty device address", nil)
	}

	dev, err := DeviceFactory()
	if err != nil {
		t.logger.WithField("error", err).Error("Failed to create BLE device")
		return device.DeviceRef{}, device.NewConnectFailed("failed to create BLE device", NormalizeError(err))
	}

	t.mu.Lock()
	t.dev = dev
	t.mu.Unlock()

	return device.DeviceRef{Address: address}, nil
}

// BeginConnect dials and discovers in the background, reporting progress
// through events.
func (t *Transport) BeginConnect(ctx context.Context, ref device.DeviceRef, events device.TransportEvents) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return device.NewConnectFailed("transport closed", nil)
	}
	if t.ctx != nil {
		t.mu.Unlock()
		return device.NewConnectFailed("connect already started", nil)
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	connCtx := t.ctx
	dev := t.dev
	t.mu.Unlock()

	t.eventsMu.Lock()
	t.events = events
	t.eventsMu.Unlock()

	done := groutine.Go(connCtx, "gatt-connect-"+ref.Address, func(ctx context.Context) {
		t.connect(ctx, dev, ref.Address)
	})
	t.track(done)
	return nil
}

func (t *Transport) connect(ctx context.Context, dev ble.Device, address string) {
	log := t.logger.WithField("address", address)

	log.Debug("Dialing BLE device...")
	client, err := Dial(ctx, dev, ble.NewAddr(address))
	if err != nil {
		log.WithField("error", NormalizeError(err)).Warn("Failed to dial BLE device")
		t.emit(func(e device.TransportEvents) { e.OnConnectionStateChanged(false, device.StatusFailure) })
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		log.Debug("Transport closed while dialing, dropping late connection")
		if err := client.CancelConnection(); err != nil {
			log.WithField("error", err).Warn("Failed to cancel late connection")
		}
		return
	}
	t.client = client
	t.mu.Unlock()

	t.emit(func(e device.TransportEvents) { e.OnConnectionStateChanged(true, device.StatusSuccess) })

	log.Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		log.WithField("error", err).Warn("Failed to discover profile")
		t.emit(func(e device.TransportEvents) { e.OnDiscoveryComplete(device.StatusFailure) })
		return
	}

	t.mu.Lock()
	t.profile = profile
	t.mu.Unlock()

	log.WithField("services", len(profile.Services)).Debug("Profile discovered successfully")
	t.emit(func(e device.TransportEvents) { e.OnDiscoveryComplete(device.StatusSuccess) })

	// Clients that implement Disconnected() (linux and darwin) report link loss there
	if dc, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		select {
		case <-dc.Disconnected():
			log.Warn("Peripheral reported disconnection")
			t.emit(func(e device.TransportEvents) { e.OnConnectionStateChanged(false, device.StatusFailure) })
		case <-ctx.Done():
		}
	} else {
		log.Debug("Client does not support Disconnected() channel")
	}
}

// RequestRead issues an asynchronous read; the value is delivered via
// OnChannelValue.
func (t *Transport) RequestRead(service, characteristic string) bool {
	client, char, ctx := t.lookup(service, characteristic)
	if char == nil || char.Property&ble.CharRead == 0 {
		return false
	}

	channel := device.NormalizeUUID(char.UUID.String())
	done := groutine.Go(ctx, "gatt-read-"+channel, func(ctx context.Context) {
		data, err := client.ReadCharacteristic(char)
		if err != nil {
			t.logger.WithFields(logrus.Fields{
				"characteristic": channel,
				"error":          NormalizeError(err),
			}).Warn("Failed to read characteristic")
			return
		}
		if ctx.Err() != nil {
			return
		}
		t.emit(func(e device.TransportEvents) { e.OnChannelValue(channel, data) })
	})
	t.track(done)
	return true
}

// RequestNotify subscribes to notifications (or indications) on the
// characteristic.
func (t *Transport) RequestNotify(service, characteristic string) bool {
	client, char, ctx := t.lookup(service, characteristic)
	if char == nil {
		return false
	}
	indicate := char.Property&ble.CharNotify == 0 && char.Property&ble.CharIndicate != 0
	if char.Property&ble.CharNotify == 0 && !indicate {
		return false
	}

	channel := device.NormalizeUUID(char.UUID.String())
	handler := func(data []byte) {
		if ctx.Err() != nil {
			return
		}
		t.emit(func(e device.TransportEvents) { e.OnChannelValue(channel, data) })
	}

	if err := client.Subscribe(char, indicate, handler); err != nil {
		t.logger.WithFields(logrus.Fields{
			"characteristic": channel,
			"error":          NormalizeError(err),
		}).Warn("Failed to subscribe")
		return false
	}

	t.mu.Lock()
	t.subscribed = append(t.subscribed, char)
	t.mu.Unlock()
	return true
}

// DisconnectAndClose unsubscribes, drops the link, waits for the
// transport's goroutines and stops the platform device. Safe to call more
// than once.
func (t *Transport) DisconnectAndClose() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		if t.cancel != nil {
			t.cancel()
		}
		client := t.client
		subscribed := t.subscribed
		t.subscribed = nil
		done := t.done
		dev := t.dev
		t.dev = nil
		t.mu.Unlock()

		if client != nil {
			for _, char := range subscribed {
				indicate := char.Property&ble.CharNotify == 0
				if err := client.Unsubscribe(char, indicate); err != nil {
					t.logger.WithFields(logrus.Fields{
						"characteristic": device.NormalizeUUID(char.UUID.String()),
						"error":          err,
					}).Debug("Failed to unsubscribe")
				}
			}
			if err := client.CancelConnection(); err != nil {
				t.closeErr = fmt.Errorf("failed to cancel connection: %w", NormalizeError(err))
			}
		}

		for _, d := range done {
			if !groutine.Wait(d, DefaultShutdownTimeout) {
				t.logger.Warn("Transport goroutine did not exit in time")
			}
		}

		// the HCI socket is exclusive on linux; the next attempt opens a new device
		if dev != nil {
			if err := dev.Stop(); err != nil {
				t.logger.WithField("error", err).Debug("Failed to stop BLE device")
				if t.closeErr == nil {
					t.closeErr = fmt.Errorf("failed to stop BLE device: %w", NormalizeError(err))
				}
			}
		}

		t.eventsMu.Lock()
		t.events = nil
		t.eventsMu.Unlock()
	})
	return t.closeErr
}

func (t *Transport) lookup(service, characteristic string) (Client, *ble.Characteristic, context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.client == nil || t.profile == nil {
		return nil, nil, nil
	}

	svcUUID := device.NormalizeUUID(service)
	charUUID := device.NormalizeUUID(characteristic)
	for _, svc := range t.profile.Services {
		if device.NormalizeUUID(svc.UUID.String()) != svcUUID {
			continue
		}
		for _, char := range svc.Characteristics {
			if device.NormalizeUUID(char.UUID.String()) == charUUID {
				return t.client, char, t.ctx
			}
		}
	}
	return nil, nil, nil
}

func (t *Transport) track(done <-chan struct{}) {
	t.mu.Lock()
	t.done = append(t.done, done)
	t.mu.Unlock()
}

func (t *Transport) emit(fn func(device.TransportEvents)) {
	t.eventsMu.Lock()
	defer t.eventsMu.Unlock()
	if t.events != nil {
		fn(t.events)
	}
}

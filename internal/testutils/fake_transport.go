//go:build test

package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/srg/blekeep/internal/device"
)

// ConnectBehavior scripts what a FakeTransport does on BeginConnect.
type ConnectBehavior int

const (
	// ConnectSucceeds: link up, then successful discovery.
	ConnectSucceeds ConnectBehavior = iota
	// ConnectHangs: no event is ever delivered.
	ConnectHangs
	// ConnectRefused: the link reports a failed connection.
	ConnectRefused
	// DiscoveryFails: link up, then discovery with a failure status.
	DiscoveryFails
	// ResolveFails: Resolve returns an error.
	ResolveFails
)

// ErrResolve is returned by a FakeTransport scripted with ResolveFails.
var ErrResolve = errors.New("fake: peripheral not found")

// FakeTransport is a scripted in-memory device.Transport.
type FakeTransport struct {
	profile  DeviceProfileConfig
	behavior ConnectBehavior

	// ConnectDelay postpones the link-up event.
	ConnectDelay time.Duration

	eventsMu sync.Mutex // serializes event delivery like a real stack
	mu       sync.Mutex
	events   device.TransportEvents
	linkUp   bool
	closed   bool

	closeCount  int
	resolved    []string
	reads       []string
	notifies    []string
	subscribed  map[string]bool
	subscribeCh chan string
}

func NewFakeTransport(profile DeviceProfileConfig, behavior ConnectBehavior) *FakeTransport {
	return &FakeTransport{
		profile:     profile,
		behavior:    behavior,
		subscribed:  make(map[string]bool),
		subscribeCh: make(chan string, 64),
	}
}

func (t *FakeTransport) Resolve(address string) (device.DeviceRef, error) {
	t.mu.Lock()
	t.resolved = append(t.resolved, address)
	t.mu.Unlock()

	if t.behavior == ResolveFails {
		return device.DeviceRef{}, ErrResolve
	}
	return device.DeviceRef{Address: address, Name: "fake-" + address}, nil
}

func (t *FakeTransport) BeginConnect(ctx context.Context, _ device.DeviceRef, events device.TransportEvents) error {
	t.mu.Lock()
	t.events = events
	t.mu.Unlock()

	if t.behavior == ConnectHangs {
		return nil
	}

	go func() {
		if t.ConnectDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.ConnectDelay):
			}
		}

		switch t.behavior {
		case ConnectRefused:
			t.deliver(func(ev device.TransportEvents) { ev.OnConnectionStateChanged(false, device.StatusFailure) })
		case DiscoveryFails:
			t.setLink(true)
			t.deliver(func(ev device.TransportEvents) { ev.OnConnectionStateChanged(true, device.StatusSuccess) })
			t.deliver(func(ev device.TransportEvents) { ev.OnDiscoveryComplete(device.StatusFailure) })
		default:
			t.setLink(true)
			t.deliver(func(ev device.TransportEvents) { ev.OnConnectionStateChanged(true, device.StatusSuccess) })
			t.deliver(func(ev device.TransportEvents) { ev.OnDiscoveryComplete(device.StatusSuccess) })
		}
	}()
	return nil
}

func (t *FakeTransport) RequestRead(service, characteristic string) bool {
	char, ok := t.profile.find(service, characteristic)
	if !ok || !hasProperty(char.Properties, "read") {
		return false
	}

	t.mu.Lock()
	t.reads = append(t.reads, characteristic)
	t.mu.Unlock()

	value := append([]byte(nil), char.Value...)
	go t.deliver(func(ev device.TransportEvents) { ev.OnChannelValue(characteristic, value) })
	return true
}

func (t *FakeTransport) RequestNotify(service, characteristic string) bool {
	char, ok := t.profile.find(service, characteristic)
	if !ok || !hasProperty(char.Properties, "notify") {
		return false
	}

	t.mu.Lock()
	t.notifies = append(t.notifies, characteristic)
	t.subscribed[characteristic] = true
	t.mu.Unlock()

	select {
	case t.subscribeCh <- characteristic:
	default:
	}
	return true
}

func (t *FakeTransport) DisconnectAndClose() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closeCount++
	t.closed = true
	t.linkUp = false
	clear(t.subscribed)
	return nil
}

// Notify delivers a notification on a subscribed characteristic.
func (t *FakeTransport) Notify(characteristic string, data []byte) bool {
	characteristic = device.NormalizeUUID(characteristic)

	t.mu.Lock()
	ok := !t.closed && t.subscribed[characteristic]
	t.mu.Unlock()
	if !ok {
		return false
	}

	value := append([]byte(nil), data...)
	t.deliver(func(ev device.TransportEvents) { ev.OnChannelValue(characteristic, value) })
	return true
}

// DropLink reports an unexpected disconnect.
func (t *FakeTransport) DropLink() {
	t.setLink(false)
	t.deliver(func(ev device.TransportEvents) { ev.OnConnectionStateChanged(false, device.StatusFailure) })
}

// WaitSubscribed blocks until RequestNotify succeeded for characteristic.
func (t *FakeTransport) WaitSubscribed(characteristic string, timeout time.Duration) bool {
	characteristic = device.NormalizeUUID(characteristic)
	deadline := time.After(timeout)
	for {
		t.mu.Lock()
		ok := t.subscribed[characteristic]
		t.mu.Unlock()
		if ok {
			return true
		}
		select {
		case <-t.subscribeCh:
		case <-deadline:
			return false
		case <-time.After(time.Millisecond):
		}
	}
}

func (t *FakeTransport) CloseCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCount
}

func (t *FakeTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *FakeTransport) ReadRequests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.reads...)
}

func (t *FakeTransport) NotifyRequests() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.notifies...)
}

func (t *FakeTransport) setLink(up bool) {
	t.mu.Lock()
	t.linkUp = up
	t.mu.Unlock()
}

func (t *FakeTransport) deliver(fn func(ev device.TransportEvents)) {
	t.mu.Lock()
	ev, closed := t.events, t.closed
	t.mu.Unlock()
	if ev == nil || closed {
		return
	}

	t.eventsMu.Lock()
	defer t.eventsMu.Unlock()
	fn(ev)
}

// FakeTransportFactory hands out one FakeTransport per attempt following a
// connect script whose last entry repeats.
type FakeTransportFactory struct {
	profile DeviceProfileConfig
	script  []ConnectBehavior

	mu         sync.Mutex
	transports []*FakeTransport
	created    chan *FakeTransport
}

func (f *FakeTransportFactory) Factory() device.TransportFactory {
	return func() (device.Transport, error) {
		f.mu.Lock()
		idx := len(f.transports)
		if idx >= len(f.script) {
			idx = len(f.script) - 1
		}
		t := NewFakeTransport(f.profile, f.script[idx])
		f.transports = append(f.transports, t)
		created := f.created
		f.mu.Unlock()

		if created != nil {
			select {
			case created <- t:
			default:
			}
		}
		return t, nil
	}
}

// Created returns a channel receiving every transport as it is created.
// Call it before the first attempt.
func (f *FakeTransportFactory) Created() <-chan *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.created == nil {
		f.created = make(chan *FakeTransport, 256)
	}
	return f.created
}

func (f *FakeTransportFactory) Transports() []*FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeTransport(nil), f.transports...)
}

// Last returns the most recently created transport or nil.
func (f *FakeTransportFactory) Last() *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.transports) == 0 {
		return nil
	}
	return f.transports[len(f.transports)-1]
}

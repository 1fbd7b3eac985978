package profile

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/sink"
)

// Raw watcher stop-condition variables.
const (
	VarUpdates = "updates"
	VarLast    = "last"
)

// CharRef names a characteristic within a service.
type CharRef struct {
	Service        string
	Characteristic string
}

func (c CharRef) String() string {
	return c.Service + "/" + c.Characteristic
}

// ParseCharRefs parses "svc/char" pairs, normalizing both UUIDs.
func ParseCharRefs(specs []string) ([]CharRef, error) {
	var refs []CharRef
	for _, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			svc, char, ok := strings.Cut(part, "/")
			if !ok {
				return nil, fmt.Errorf("invalid characteristic %q (expected service/characteristic)", part)
			}
			uuids, err := device.ValidateUUID(svc, char)
			if err != nil {
				return nil, fmt.Errorf("invalid characteristic %q: %w", part, err)
			}
			refs = append(refs, CharRef{Service: uuids[0], Characteristic: uuids[1]})
		}
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("at least one characteristic is required")
	}
	return refs, nil
}

// RawWatcher subscribes to arbitrary characteristics and emits every update
// as hex. Characteristics without notify support are read once per connection.
type RawWatcher struct {
	adapter
	refs []CharRef
}

func NewRawWatcher(refs []CharRef, opts Options) *RawWatcher {
	return &RawWatcher{adapter: newAdapter(opts), refs: refs}
}

func (w *RawWatcher) OnConnected(gatt device.Controller) error {
	w.markConnected()

	var found int
	for _, ref := range w.refs {
		log := w.logger.WithFields(logrus.Fields{
			"address":        gatt.Address(),
			"characteristic": ref.String(),
		})
		switch {
		case gatt.RequestNotify(ref.Service, ref.Characteristic):
			log.Debug("Subscribed")
			found++
		case gatt.RequestRead(ref.Service, ref.Characteristic):
			log.Debug("Notifications unavailable, reading once")
			found++
		default:
			log.Warn("Characteristic not found")
		}
	}

	if found == 0 {
		return device.NewConnectFailed("none of the requested characteristics were found", &device.NotFoundError{
			Resource: "characteristic",
		})
	}
	return nil
}

func (w *RawWatcher) OnUpdate(gatt device.Controller, channel string, data []byte) error {
	w.mu.Lock()
	n, _ := w.vars[VarUpdates].(int)
	w.vars[VarUpdates] = n + 1
	w.vars[VarLast] = sink.RawHex(data)
	w.mu.Unlock()

	w.emit(gatt.Address(), sink.KindRaw, channel, nil, data)
	return nil
}

func (w *RawWatcher) OnLoop(device.Controller) (bool, error) {
	return w.shouldStop()
}

// Updates returns how many updates were received across all connections.
func (w *RawWatcher) Updates() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, _ := w.vars[VarUpdates].(int)
	return n
}

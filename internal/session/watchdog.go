package session

import (
	"fmt"
	"time"

	"github.com/srg/blekeep/internal/device"
)

// watchdog wraps the application callback with the data-liveness deadline
// and records connect/data milestones for the supervisor.
type watchdog struct {
	inner   Callback
	session *Session
	timeout time.Duration
	now     func() time.Time

	deadline     time.Time
	connected    bool
	receivedData bool
}

func newWatchdog(inner Callback, session *Session, timeout time.Duration) *watchdog {
	w := &watchdog{
		inner:   inner,
		session: session,
		timeout: timeout,
		now:     time.Now,
	}
	w.deadline = w.now().Add(timeout)
	return w
}

func (w *watchdog) OnConnected(gatt device.Controller) error {
	w.connected = true
	w.session.markConnected()
	w.deadline = w.now().Add(w.timeout)
	return w.inner.OnConnected(gatt)
}

func (w *watchdog) OnUpdate(gatt device.Controller, channel string, data []byte) error {
	w.receivedData = true
	w.deadline = w.now().Add(w.timeout)
	return w.inner.OnUpdate(gatt, channel, data)
}

func (w *watchdog) OnLoop(gatt device.Controller) (bool, error) {
	if w.timeout > 0 && w.now().After(w.deadline) {
		return false, device.NewDataTimeout(fmt.Sprintf("no channel update for %s", w.timeout))
	}
	return w.inner.OnLoop(gatt)
}

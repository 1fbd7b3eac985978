package profile

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/sink"
)

// Heart rate stop-condition variables.
const (
	VarBPM     = "bpm"
	VarBattery = "battery"
	VarEnergy  = "energy"
	VarRR      = "rr"
	VarContact = "contact"
)

// HeartRateMonitor follows a heart rate strap: battery level first, then
// heart rate notifications.
type HeartRateMonitor struct {
	adapter

	// per connection
	notifying bool
}

func NewHeartRateMonitor(opts Options) *HeartRateMonitor {
	return &HeartRateMonitor{adapter: newAdapter(opts)}
}

// OnConnected reads the battery level; heart rate notifications are
// requested once it arrives. Without a battery service they are requested
// immediately.
func (m *HeartRateMonitor) OnConnected(gatt device.Controller) error {
	m.markConnected()
	m.notifying = false

	if gatt.RequestRead(device.BatteryService, device.BatteryLevel) {
		return nil
	}
	m.logger.WithField("address", gatt.Address()).Debug("No battery service, subscribing to heart rate")
	return m.requestHeartRate(gatt)
}

func (m *HeartRateMonitor) requestHeartRate(gatt device.Controller) error {
	if m.notifying {
		return nil
	}
	if !gatt.RequestNotify(device.HeartRateService, device.HeartRateMeasurement) {
		return device.NewConnectFailed("heart rate service not found", &device.NotFoundError{
			Resource: "characteristic",
			UUIDs:    []string{device.HeartRateService, device.HeartRateMeasurement},
		})
	}
	m.notifying = true
	return nil
}

func (m *HeartRateMonitor) OnUpdate(gatt device.Controller, channel string, data []byte) error {
	switch channel {
	case device.HeartRateMeasurement:
		hr, err := DecodeHeartRate(data)
		if err != nil {
			m.skip(channel, data, err)
			return nil
		}
		m.onHeartRate(gatt.Address(), hr)

	case device.BatteryLevel:
		level, err := DecodeBattery(data)
		if err != nil {
			m.skip(channel, data, err)
			return m.requestHeartRate(gatt)
		}
		m.setVar(VarBattery, int(level))
		m.logger.WithFields(logrus.Fields{
			"address": gatt.Address(),
			"battery": level,
		}).Info("Heart rate monitor battery")
		m.emit(gatt.Address(), sink.KindBattery, channel, map[string]float64{"level": float64(level)}, nil)
		return m.requestHeartRate(gatt)
	}
	return nil
}

func (m *HeartRateMonitor) onHeartRate(address string, hr HeartRate) {
	values := map[string]float64{"bpm": float64(hr.BPM)}

	m.mu.Lock()
	m.vars[VarBPM] = int(hr.BPM)
	m.vars[VarContact] = !hr.ContactSupported || hr.Contact
	if hr.EnergyExpended {
		m.vars[VarEnergy] = int(hr.Energy)
		values["energy_kj"] = float64(hr.Energy)
	}
	if n := len(hr.RR); n > 0 {
		last := hr.RR[n-1]
		m.vars[VarRR] = last.Seconds()
		values["rr_ms"] = float64(last.Microseconds()) / 1000
	}
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"address": address,
		"bpm":     hr.BPM,
	}).Debug("Heart rate update")
	m.emit(address, sink.KindHeartRate, device.HeartRateMeasurement, values, nil)
}

func (m *HeartRateMonitor) OnLoop(device.Controller) (bool, error) {
	return m.shouldStop()
}

// BPM returns the latest heart rate, or false before the first measurement.
func (m *HeartRateMonitor) BPM() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[VarBPM].(int)
	return v, ok
}

// Battery returns the latest battery level, or false if none was read.
func (m *HeartRateMonitor) Battery() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vars[VarBattery].(int)
	return v, ok
}

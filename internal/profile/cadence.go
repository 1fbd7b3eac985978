package profile

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/sensor"
	"github.com/srg/blekeep/internal/sink"
)

// Window channels of a CadenceSensor.
const (
	ChannelWheel = "wheel"
	ChannelCrank = "crank"
)

// Speed and cadence stop-condition variables.
const (
	VarWheelRPM = "wheel_rpm"
	VarCadence  = "cadence"
	VarSpeed    = "speed"
)

// CadenceSensor follows a cycling speed and cadence sensor. Wheel and crank
// revolutions feed independent sample windows.
type CadenceSensor struct {
	adapter
	windows *sensor.WindowRegistry

	notifying bool
}

func NewCadenceSensor(opts Options) *CadenceSensor {
	s := &CadenceSensor{adapter: newAdapter(opts)}
	s.windows = sensor.NewWindowRegistry(s.opts.WindowSize)
	return s
}

// OnConnected starts a fresh rate history, then reads the battery level
// before subscribing to measurements.
func (s *CadenceSensor) OnConnected(gatt device.Controller) error {
	s.markConnected()
	s.notifying = false
	// counters may have wrapped more than once while disconnected
	s.windows.Reset()

	if gatt.RequestRead(device.BatteryService, device.BatteryLevel) {
		return nil
	}
	return s.requestMeasurements(gatt)
}

func (s *CadenceSensor) requestMeasurements(gatt device.Controller) error {
	if s.notifying {
		return nil
	}
	if !gatt.RequestNotify(device.CyclingSpeedCadence, device.CSCMeasurement) {
		return device.NewConnectFailed("speed and cadence service not found", &device.NotFoundError{
			Resource: "characteristic",
			UUIDs:    []string{device.CyclingSpeedCadence, device.CSCMeasurement},
		})
	}
	s.notifying = true
	return nil
}

func (s *CadenceSensor) OnUpdate(gatt device.Controller, channel string, data []byte) error {
	switch channel {
	case device.CSCMeasurement:
		m, err := DecodeCSC(data)
		if err != nil {
			s.skip(channel, data, err)
			return nil
		}
		s.onMeasurement(gatt.Address(), m)

	case device.BatteryLevel:
		level, err := DecodeBattery(data)
		if err != nil {
			s.skip(channel, data, err)
			return s.requestMeasurements(gatt)
		}
		s.setVar(VarBattery, int(level))
		s.logger.WithFields(logrus.Fields{
			"address": gatt.Address(),
			"battery": level,
		}).Info("Speed and cadence sensor battery")
		s.emit(gatt.Address(), sink.KindBattery, channel, map[string]float64{"level": float64(level)}, nil)
		return s.requestMeasurements(gatt)
	}
	return nil
}

func (s *CadenceSensor) onMeasurement(address string, m CSCMeasurement) {
	values := make(map[string]float64, 5)

	if m.HasWheel {
		s.windows.Window(ChannelWheel).Append(m.WheelRevolutions, uint32(m.WheelEventTime))
		wheelRPM := s.WheelRPM()
		speed := sensor.SpeedKmPerHour(wheelRPM, s.opts.WheelCircumferenceMM)
		values["wheel_revolutions"] = float64(m.WheelRevolutions)
		values["wheel_rpm"] = wheelRPM
		values["speed_kmh"] = speed
		s.setVar(VarWheelRPM, wheelRPM)
		s.setVar(VarSpeed, speed)
	}
	if m.HasCrank {
		s.windows.Window(ChannelCrank).Append(uint32(m.CrankRevolutions), uint32(m.CrankEventTime))
		cadence := s.CrankRPM()
		values["crank_revolutions"] = float64(m.CrankRevolutions)
		values["cadence_rpm"] = cadence
		s.setVar(VarCadence, cadence)
	}
	if len(values) == 0 {
		return
	}

	s.logger.WithFields(logrus.Fields{
		"address": address,
		"wheel":   m.HasWheel,
		"crank":   m.HasCrank,
	}).Debug("Speed and cadence update")
	s.emit(address, sink.KindCadence, device.CSCMeasurement, values, nil)
}

func (s *CadenceSensor) OnLoop(device.Controller) (bool, error) {
	return s.shouldStop()
}

// WheelRPM returns the windowed wheel rate.
func (s *CadenceSensor) WheelRPM() float64 {
	return s.windows.RPM(ChannelWheel)
}

// CrankRPM returns the windowed crank rate (cadence).
func (s *CadenceSensor) CrankRPM() float64 {
	return s.windows.RPM(ChannelCrank)
}

// SpeedKmPerHour converts the windowed wheel rate using the configured
// wheel circumference.
func (s *CadenceSensor) SpeedKmPerHour() float64 {
	return sensor.SpeedKmPerHour(s.WheelRPM(), s.opts.WheelCircumferenceMM)
}

// Windows exposes the per-channel sample windows.
func (s *CadenceSensor) Windows() *sensor.WindowRegistry {
	return s.windows
}

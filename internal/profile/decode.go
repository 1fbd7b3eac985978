// Package profile decodes the standard heart rate, battery and cycling speed
// and cadence characteristics and provides session callbacks built on them.
package profile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrShortPayload is returned when a payload ends before its flags say it should.
var ErrShortPayload = errors.New("payload too short")

// Heart rate measurement flags (Heart Rate Service 1.0, 3.1.1.1)
const (
	hrFlagUint16      = 0x01
	hrFlagContact     = 0x02
	hrFlagContactSupp = 0x04
	hrFlagEnergy      = 0x08
	hrFlagRR          = 0x10
)

// CSC measurement flags
const (
	cscFlagWheel = 0x01
	cscFlagCrank = 0x02
)

// HeartRate is a decoded heart rate measurement.
type HeartRate struct {
	BPM              uint16
	Contact          bool
	ContactSupported bool
	EnergyExpended   bool
	Energy           uint16 // kJ
	RR               []time.Duration
}

// DecodeHeartRate decodes a 2A37 notification.
func DecodeHeartRate(data []byte) (HeartRate, error) {
	if len(data) < 2 {
		return HeartRate{}, fmt.Errorf("heart rate: %w (%d bytes)", ErrShortPayload, len(data))
	}

	flags := data[0]
	m := HeartRate{
		ContactSupported: flags&hrFlagContactSupp != 0,
		Contact:          flags&(hrFlagContact|hrFlagContactSupp) == hrFlagContact|hrFlagContactSupp,
		EnergyExpended:   flags&hrFlagEnergy != 0,
	}

	offset := 1
	if flags&hrFlagUint16 != 0 {
		if len(data) < offset+2 {
			return HeartRate{}, fmt.Errorf("heart rate: %w for uint16 value", ErrShortPayload)
		}
		m.BPM = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	} else {
		m.BPM = uint16(data[offset])
		offset++
	}

	if m.EnergyExpended {
		if len(data) < offset+2 {
			return HeartRate{}, fmt.Errorf("heart rate: %w for energy expended", ErrShortPayload)
		}
		m.Energy = binary.LittleEndian.Uint16(data[offset:])
		offset += 2
	}

	if flags&hrFlagRR != 0 {
		rrData := data[offset:]
		m.RR = make([]time.Duration, 0, len(rrData)/2)
		for i := 0; i+1 < len(rrData); i += 2 {
			m.RR = append(m.RR, time.Duration(binary.LittleEndian.Uint16(rrData[i:]))*time.Second/1024)
		}
	}
	return m, nil
}

// DecodeBattery decodes a 2A19 battery level (percent).
func DecodeBattery(data []byte) (uint8, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("battery level: %w", ErrShortPayload)
	}
	if data[0] > 100 {
		return 0, fmt.Errorf("battery level %d out of range", data[0])
	}
	return data[0], nil
}

// CSCMeasurement is a decoded cycling speed and cadence measurement.
// Event times are in 1/1024 s.
type CSCMeasurement struct {
	HasWheel         bool
	WheelRevolutions uint32
	WheelEventTime   uint16

	HasCrank         bool
	CrankRevolutions uint16
	CrankEventTime   uint16
}

// DecodeCSC decodes a 2A5B notification.
func DecodeCSC(data []byte) (CSCMeasurement, error) {
	if len(data) < 1 {
		return CSCMeasurement{}, fmt.Errorf("csc: %w", ErrShortPayload)
	}

	flags := data[0]
	m := CSCMeasurement{
		HasWheel: flags&cscFlagWheel != 0,
		HasCrank: flags&cscFlagCrank != 0,
	}

	offset := 1
	if m.HasWheel {
		if len(data) < offset+6 {
			return CSCMeasurement{}, fmt.Errorf("csc: %w for wheel data at offset %d", ErrShortPayload, offset)
		}
		m.WheelRevolutions = binary.LittleEndian.Uint32(data[offset:])
		m.WheelEventTime = binary.LittleEndian.Uint16(data[offset+4:])
		offset += 6
	}
	if m.HasCrank {
		if len(data) < offset+4 {
			return CSCMeasurement{}, fmt.Errorf("csc: %w for crank data at offset %d", ErrShortPayload, offset)
		}
		m.CrankRevolutions = binary.LittleEndian.Uint16(data[offset:])
		m.CrankEventTime = binary.LittleEndian.Uint16(data[offset+2:])
	}
	return m, nil
}

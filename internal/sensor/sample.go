package sensor

import (
	"fmt"
	"time"
)

// RawSample is one reconstructed counter/timestamp reading.
//
// Offsets are relative to the sample it was derived from; cumulative values
// are running sums that never wrap. A RawSample is immutable.
type RawSample struct {
	rawValue            uint32
	valueOffset         int32
	cumulativeValue     int64
	rawTimestamp        uint32
	timestampOffset     int32
	cumulativeTimestamp int64
	receivedAt          time.Time
}

// NextSample derives a sample from prev (nil for the first reading) using the
// current monotonic clock as the arrival time.
func NextSample(prev *RawSample, rawValue, rawTimestamp uint32) *RawSample {
	return NextSampleAt(prev, rawValue, rawTimestamp, time.Now())
}

// NextSampleAt is NextSample with an explicit arrival time.
func NextSampleAt(prev *RawSample, rawValue, rawTimestamp uint32, receivedAt time.Time) *RawSample {
	s := &RawSample{
		rawValue:     rawValue & counterMask,
		rawTimestamp: rawTimestamp & counterMask,
		receivedAt:   receivedAt,
	}

	if prev == nil {
		s.cumulativeValue = int64(s.rawValue)
		s.cumulativeTimestamp = int64(s.rawTimestamp)
		return s
	}

	s.valueOffset = int32(Offset16(prev.rawValue, s.rawValue))
	s.timestampOffset = int32(Offset16(prev.rawTimestamp, s.rawTimestamp))
	s.cumulativeValue = prev.cumulativeValue + int64(s.valueOffset)
	s.cumulativeTimestamp = prev.cumulativeTimestamp + int64(s.timestampOffset)
	return s
}

func (s *RawSample) RawValue() uint32           { return s.rawValue }
func (s *RawSample) ValueOffset() int32         { return s.valueOffset }
func (s *RawSample) CumulativeValue() int64     { return s.cumulativeValue }
func (s *RawSample) RawTimestamp() uint32       { return s.rawTimestamp }
func (s *RawSample) TimestampOffset() int32     { return s.timestampOffset }
func (s *RawSample) CumulativeTimestamp() int64 { return s.cumulativeTimestamp }
func (s *RawSample) ReceivedAt() time.Time      { return s.receivedAt }

// RPM is the instantaneous rate against the previous sample, or 0 when the
// device timestamp did not advance.
func (s *RawSample) RPM() float64 {
	if s.timestampOffset == 0 {
		return 0
	}
	seconds := float64(s.timestampOffset) / TicksPerSecond
	return float64(s.valueOffset) * (60 / seconds)
}

// RPMSince computes the rate between older and s from cumulative sums.
//
// When the device timestamp is identical across the span, the wall-clock
// arrival delta (millisecond resolution) is used instead. If that is zero as
// well the rate is 0.
func (s *RawSample) RPMSince(older *RawSample) float64 {
	if older == nil {
		return 0
	}

	var seconds float64
	if ticks := s.cumulativeTimestamp - older.cumulativeTimestamp; ticks != 0 {
		seconds = float64(ticks) / TicksPerSecond
	} else {
		ms := s.receivedAt.Sub(older.receivedAt).Milliseconds()
		if ms == 0 {
			return 0
		}
		seconds = float64(ms) / 1000
	}

	return float64(s.cumulativeValue-older.cumulativeValue) * 60 / seconds
}

func (s *RawSample) String() string {
	return fmt.Sprintf("RawSample{value=%d(+%d, Σ%d) ts=%d(+%d, Σ%d)}",
		s.rawValue, s.valueOffset, s.cumulativeValue,
		s.rawTimestamp, s.timestampOffset, s.cumulativeTimestamp)
}

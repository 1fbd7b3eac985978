package sensor

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSample_Seed(t *testing.T) {
	at := time.Unix(1000, 0)
	s := NextSampleAt(nil, 1234, 12345, at)

	assert.Equal(t, uint32(1234), s.RawValue())
	assert.Equal(t, uint32(12345), s.RawTimestamp())
	assert.Equal(t, int32(0), s.ValueOffset(), "seed sample MUST have zero offsets")
	assert.Equal(t, int32(0), s.TimestampOffset())
	assert.Equal(t, int64(1234), s.CumulativeValue(), "seed cumulative MUST equal the raw value")
	assert.Equal(t, int64(12345), s.CumulativeTimestamp())
	assert.Equal(t, at, s.ReceivedAt())
	assert.Equal(t, 0.0, s.RPM(), "seed sample MUST report no rate")
}

func TestNextSample_AccumulatesAcrossWrap(t *testing.T) {
	at := time.Unix(1000, 0)
	first := NextSampleAt(nil, 0xFFFE, 0xFC00, at)
	second := NextSampleAt(first, 0x0003, 0x0000, at.Add(time.Second))

	assert.Equal(t, int32(5), second.ValueOffset())
	assert.Equal(t, int32(0x400), second.TimestampOffset())
	assert.Equal(t, int64(0xFFFE+5), second.CumulativeValue(), "cumulative value MUST keep growing past the wrap")
	assert.Equal(t, int64(0xFC00+0x400), second.CumulativeTimestamp())

	// 5 revolutions in 1 s
	assert.InDelta(t, 300.0, second.RPM(), 1e-9)
	assert.InDelta(t, 300.0, second.RPMSince(first), 1e-9)
}

func TestRawSample_RPMWithStaticTimestamp(t *testing.T) {
	at := time.Unix(1000, 0)
	first := NextSampleAt(nil, 10, 500, at)
	second := NextSampleAt(first, 12, 500, at)

	assert.Equal(t, 0.0, second.RPM(), "duplicate device timestamp MUST yield 0 instead of dividing by zero")
	assert.Equal(t, 0.0, second.RPMSince(first), "no device and no wall-clock progress MUST yield 0")
}

func TestRawSample_RPMSinceFallsBackToWallClock(t *testing.T) {
	at := time.Unix(1000, 0)
	first := NextSampleAt(nil, 10, 500, at)
	second := NextSampleAt(first, 12, 500, at.Add(500*time.Millisecond))

	// 2 revolutions in 0.5 s of wall-clock time
	assert.InDelta(t, 240.0, second.RPMSince(first), 1e-9)
}

func TestRawSample_RPMSinceNil(t *testing.T) {
	s := NextSampleAt(nil, 1, 1, time.Now())
	assert.Equal(t, 0.0, s.RPMSince(nil))
}

type rateSimulator struct {
	rnd          *rand.Rand
	rpm          float64
	clock        time.Time
	sensorTime   float64
	revolutions  float64
	elapsedSecs  float64
	minInterval  float64
	intervalSpan float64
}

func newRateSimulator(seed int64, rpm float64) *rateSimulator {
	return &rateSimulator{
		rnd:          rand.New(rand.NewSource(seed)),
		rpm:          rpm,
		clock:        time.Unix(1_700_000_000, 0),
		sensorTime:   12345,
		revolutions:  1234,
		minInterval:  1.5,
		intervalSpan: 1.0,
	}
}

// step advances the simulated peripheral by a jittered interval and returns
// the wire values it would report.
func (s *rateSimulator) step() (rawValue, rawTimestamp uint32, at time.Time) {
	interval := s.minInterval + s.rnd.Float64()*s.intervalSpan
	s.elapsedSecs += interval
	s.clock = s.clock.Add(time.Duration(interval * float64(time.Second)))
	s.sensorTime += interval * TicksPerSecond
	s.revolutions += s.rpm * interval / 60

	return uint32(int64(s.revolutions)) & 0xFFFF, uint32(int64(s.sensorTime)) & 0xFFFF, s.clock
}

// GOAL: windowed rate converges to the true rate despite jittered arrival
//
// TEST SCENARIO: 200 rpm source → 1.5–2.5 s intervals for 60 simulated seconds → once the window is full, mean windowed rpm within ±2%
func TestSampleWindow_RateConvergence(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		sim := newRateSimulator(seed, 200)
		window := NewSampleWindow(DefaultWindowSize)

		var sum float64
		var n int
		for sim.elapsedSecs < 60 {
			v, ts, at := sim.step()
			window.Add(NextSampleAt(window.Latest(), v, ts, at))
			if window.Len() == window.Capacity() {
				sum += window.RPM()
				n++
			}
		}

		require.Greater(t, n, 0)
		avg := sum / float64(n)
		assert.GreaterOrEqual(t, avg, 196.0, "seed %d: windowed average MUST be within 2%% of 200 rpm", seed)
		assert.LessOrEqual(t, avg, 204.0, "seed %d: windowed average MUST be within 2%% of 200 rpm", seed)
	}
}

// GOAL: instantaneous rate averaged over a long ride stays within ±1% despite per-sample truncation
//
// TEST SCENARIO: 200 rpm source → one simulated hour → cumulative value strictly increases → mean rpm in [198, 202]
func TestRawSample_InstantaneousRateLongRun(t *testing.T) {
	sim := newRateSimulator(99, 200)

	var prev *RawSample
	var sum float64
	var n int
	for sim.elapsedSecs < 3600 {
		v, ts, at := sim.step()
		next := NextSampleAt(prev, v, ts, at)
		if prev != nil {
			require.Greater(t, next.CumulativeValue(), prev.CumulativeValue(), "cumulative revolutions MUST increase")
		}
		sum += next.RPM()
		n++
		prev = next
	}

	avg := sum / float64(n)
	assert.InDelta(t, 200.0, avg, 2.0)
}

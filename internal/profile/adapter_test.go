package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeController answers requests from a fixed set of present characteristics.
type fakeController struct {
	readable   map[string]bool
	notifiable map[string]bool
	reads      []string
	notifies   []string
}

func newFakeController() *fakeController {
	return &fakeController{readable: map[string]bool{}, notifiable: map[string]bool{}}
}

func (c *fakeController) withRead(svc, char string) *fakeController {
	c.readable[svc+"/"+char] = true
	return c
}

func (c *fakeController) withNotify(svc, char string) *fakeController {
	c.notifiable[svc+"/"+char] = true
	return c
}

func (c *fakeController) Address() string { return "00:00:00:00:00:01" }

func (c *fakeController) RequestRead(svc, char string) bool {
	key := device.NormalizeUUID(svc) + "/" + device.NormalizeUUID(char)
	if !c.readable[key] {
		return false
	}
	c.reads = append(c.reads, key)
	return true
}

func (c *fakeController) RequestNotify(svc, char string) bool {
	key := device.NormalizeUUID(svc) + "/" + device.NormalizeUUID(char)
	if !c.notifiable[key] {
		return false
	}
	c.notifies = append(c.notifies, key)
	return true
}

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func collect(out *[]sink.Reading) func(sink.Reading) {
	return func(r sink.Reading) { *out = append(*out, r) }
}

const (
	batteryRef = device.BatteryService + "/" + device.BatteryLevel
	hrRef      = device.HeartRateService + "/" + device.HeartRateMeasurement
	cscRef     = device.CyclingSpeedCadence + "/" + device.CSCMeasurement
)

func TestHeartRateMonitor_BatteryThenHeartRate(t *testing.T) {
	// GOAL: Verify the battery is read first and heart rate subscribed once it arrives
	//
	// TEST SCENARIO: connect → read battery → battery value → notify HR → HR value → readings emitted

	var readings []sink.Reading
	m := NewHeartRateMonitor(Options{OnReading: collect(&readings)})
	gatt := newFakeController().
		withRead(device.BatteryService, device.BatteryLevel).
		withNotify(device.HeartRateService, device.HeartRateMeasurement)

	require.NoError(t, m.OnConnected(gatt))
	assert.Equal(t, []string{batteryRef}, gatt.reads)
	assert.Empty(t, gatt.notifies, "heart rate MUST wait for the battery value")

	require.NoError(t, m.OnUpdate(gatt, device.BatteryLevel, []byte{87}))
	assert.Equal(t, []string{hrRef}, gatt.notifies)

	require.NoError(t, m.OnUpdate(gatt, device.BatteryLevel, []byte{86}))
	assert.Len(t, gatt.notifies, 1, "heart rate MUST be requested once per connection")

	require.NoError(t, m.OnUpdate(gatt, device.HeartRateMeasurement, []byte{0x10, 72, 0x00, 0x04}))

	bpm, ok := m.BPM()
	assert.True(t, ok)
	assert.Equal(t, 72, bpm)
	battery, _ := m.Battery()
	assert.Equal(t, 86, battery)

	require.Len(t, readings, 3)
	assert.Equal(t, sink.KindBattery, readings[0].Kind)
	assert.Equal(t, 87.0, readings[0].Values["level"])
	assert.Equal(t, sink.KindHeartRate, readings[2].Kind)
	assert.Equal(t, map[string]float64{"bpm": 72, "rr_ms": 1000}, readings[2].Values)
	assert.Equal(t, "00:00:00:00:00:01", readings[2].Device)
}

func TestHeartRateMonitor_WithoutBattery(t *testing.T) {
	// GOAL: Verify heart rate is subscribed immediately when no battery service exists
	//
	// TEST SCENARIO: battery absent → notify HR at connect

	m := NewHeartRateMonitor(Options{})
	gatt := newFakeController().withNotify(device.HeartRateService, device.HeartRateMeasurement)

	require.NoError(t, m.OnConnected(gatt))
	assert.Equal(t, []string{hrRef}, gatt.notifies)
}

func TestHeartRateMonitor_MissingHeartRate(t *testing.T) {
	// GOAL: Verify a peripheral without heart rate fails the connect as ConnectFailed
	//
	// TEST SCENARIO: neither battery nor HR → ConnectFailed; battery only → ConnectFailed after battery value

	m := NewHeartRateMonitor(Options{})

	err := m.OnConnected(newFakeController())
	assert.ErrorIs(t, err, device.ErrConnectFailed)
	var nf *device.NotFoundError
	assert.True(t, errors.As(err, &nf), "missing characteristic MUST be described")

	gatt := newFakeController().withRead(device.BatteryService, device.BatteryLevel)
	require.NoError(t, m.OnConnected(gatt))
	err = m.OnUpdate(gatt, device.BatteryLevel, []byte{50})
	assert.ErrorIs(t, err, device.ErrConnectFailed)
}

func TestHeartRateMonitor_ReconnectRequestsAgain(t *testing.T) {
	// GOAL: Verify subscriptions are re-requested on every new connection
	//
	// TEST SCENARIO: connect → battery → HR notify → reconnect → battery → HR notify again

	m := NewHeartRateMonitor(Options{})
	for i := 0; i < 2; i++ {
		gatt := newFakeController().
			withRead(device.BatteryService, device.BatteryLevel).
			withNotify(device.HeartRateService, device.HeartRateMeasurement)
		require.NoError(t, m.OnConnected(gatt))
		require.NoError(t, m.OnUpdate(gatt, device.BatteryLevel, []byte{50}))
		assert.Equal(t, []string{hrRef}, gatt.notifies, "connection %d MUST subscribe", i)
	}
}

func TestHeartRateMonitor_MalformedUpdatesAreSkipped(t *testing.T) {
	var readings []sink.Reading
	m := NewHeartRateMonitor(Options{OnReading: collect(&readings)})
	gatt := newFakeController().withNotify(device.HeartRateService, device.HeartRateMeasurement)
	require.NoError(t, m.OnConnected(gatt))

	assert.NoError(t, m.OnUpdate(gatt, device.HeartRateMeasurement, []byte{0x01}), "malformed payload MUST NOT end the session")
	assert.NoError(t, m.OnUpdate(gatt, "2a29", []byte("acme")), "unknown channels MUST be ignored")
	assert.Empty(t, readings)

	_, ok := m.BPM()
	assert.False(t, ok)
}

func TestStopCondition(t *testing.T) {
	// GOAL: Verify OnLoop ends the session when the stop condition holds on the adapter variables
	//
	// TEST SCENARIO: bpm 120 → not done → bpm 181 → done; elapsed grows from the first connect

	clock := newFakeClock()
	var seen map[string]any
	m := NewHeartRateMonitor(Options{
		Now: clock.Now,
		Until: func(vars map[string]any) (bool, error) {
			seen = vars
			bpm, _ := vars[VarBPM].(int)
			return bpm > 180, nil
		},
	})
	gatt := newFakeController().withNotify(device.HeartRateService, device.HeartRateMeasurement)

	done, err := m.OnLoop(gatt)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0.0, seen[VarElapsed], "elapsed MUST be 0 before the first connect")

	require.NoError(t, m.OnConnected(gatt))
	clock.Advance(90 * time.Second)
	require.NoError(t, m.OnUpdate(gatt, device.HeartRateMeasurement, []byte{0x00, 120}))

	done, err = m.OnLoop(gatt)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 90.0, seen[VarElapsed])

	// reconnect keeps counting from the first connect
	require.NoError(t, m.OnConnected(gatt))
	clock.Advance(10 * time.Second)
	require.NoError(t, m.OnUpdate(gatt, device.HeartRateMeasurement, []byte{0x00, 181}))

	done, err = m.OnLoop(gatt)
	require.NoError(t, err)
	assert.True(t, done, "stop condition MUST end the loop")
	assert.Equal(t, 100.0, seen[VarElapsed])
}

func TestStopConditionError(t *testing.T) {
	failure := errors.New("attempt to compare nil with number")
	m := NewHeartRateMonitor(Options{Until: func(map[string]any) (bool, error) { return false, failure }})

	done, err := m.OnLoop(newFakeController())
	assert.False(t, done)
	assert.ErrorIs(t, err, failure)
}

func TestCadenceSensor_RatesAndSpeed(t *testing.T) {
	// GOAL: Verify wheel and crank revolutions feed separate windows and produce speed
	//
	// TEST SCENARIO: battery → notify CSC → 5 samples 1s apart (4 wheel rev/s, 1.5 crank rev/s) → 240 wheel rpm, 90 rpm cadence

	var readings []sink.Reading
	s := NewCadenceSensor(Options{OnReading: collect(&readings), WheelCircumferenceMM: 2096})
	gatt := newFakeController().
		withRead(device.BatteryService, device.BatteryLevel).
		withNotify(device.CyclingSpeedCadence, device.CSCMeasurement)

	require.NoError(t, s.OnConnected(gatt))
	require.NoError(t, s.OnUpdate(gatt, device.BatteryLevel, []byte{40}))
	assert.Equal(t, []string{cscRef}, gatt.notifies)

	for i := 0; i < 5; i++ {
		wheel := uint32(65530 + 4*i) // wraps the 16-bit counter
		wheelTime := uint16(64000 + 1024*i)
		crank := uint16(3 * i / 2) // 0, 1, 3, 4, 6
		crankTime := uint16(1024 * i)

		data := []byte{0x03,
			byte(wheel), byte(wheel >> 8), byte(wheel >> 16), byte(wheel >> 24),
			byte(wheelTime), byte(wheelTime >> 8),
			byte(crank), byte(crank >> 8),
			byte(crankTime), byte(crankTime >> 8),
		}
		require.NoError(t, s.OnUpdate(gatt, device.CSCMeasurement, data))
	}

	assert.InDelta(t, 240.0, s.WheelRPM(), 1e-9, "wheel rate MUST survive the counter wrap")
	assert.InDelta(t, 90.0, s.CrankRPM(), 1e-9)
	assert.InDelta(t, 30.1824, s.SpeedKmPerHour(), 1e-9)
	assert.Equal(t, []string{ChannelCrank, ChannelWheel}, s.Windows().Channels())

	last := readings[len(readings)-1]
	assert.Equal(t, sink.KindCadence, last.Kind)
	assert.InDelta(t, 30.1824, last.Values["speed_kmh"], 1e-9)
	assert.InDelta(t, 90.0, last.Values["cadence_rpm"], 1e-9)

	vars := s.Vars()
	assert.Equal(t, 40, vars[VarBattery])
	assert.InDelta(t, 90.0, vars[VarCadence].(float64), 1e-9)

	// a new connection starts a new rate history
	require.NoError(t, s.OnConnected(gatt))
	assert.Zero(t, s.WheelRPM())
}

func TestCadenceSensor_MissingService(t *testing.T) {
	s := NewCadenceSensor(Options{})
	err := s.OnConnected(newFakeController())
	assert.ErrorIs(t, err, device.ErrConnectFailed)
}

func TestParseCharRefs(t *testing.T) {
	refs, err := ParseCharRefs([]string{"180D/2A37, 0x180f/2a19", "6e400001-b5a3-f393-e0a9-e50e24dcca9e/6e400003-b5a3-f393-e0a9-e50e24dcca9e"})
	require.NoError(t, err)
	assert.Equal(t, []CharRef{
		{Service: "180d", Characteristic: "2a37"},
		{Service: "180f", Characteristic: "2a19"},
		{Service: "6e400001b5a3f393e0a9e50e24dcca9e", Characteristic: "6e400003b5a3f393e0a9e50e24dcca9e"},
	}, refs)
	assert.Equal(t, "180d/2a37", refs[0].String())

	for _, bad := range [][]string{nil, {""}, {"180d"}, {"180d/zz"}, {"/2a37"}} {
		_, err := ParseCharRefs(bad)
		assert.Error(t, err, "%q MUST be rejected", bad)
	}
}

func TestRawWatcher(t *testing.T) {
	// GOAL: Verify the raw watcher subscribes where possible, reads otherwise, and emits hex readings
	//
	// TEST SCENARIO: notify 2a37, read-only 2a19, missing 2a5b → connect ok → updates counted and emitted

	var readings []sink.Reading
	refs := []CharRef{
		{Service: "180d", Characteristic: "2a37"},
		{Service: "180f", Characteristic: "2a19"},
		{Service: "1816", Characteristic: "2a5b"},
	}
	w := NewRawWatcher(refs, Options{
		OnReading: collect(&readings),
		Until: func(vars map[string]any) (bool, error) {
			n, _ := vars[VarUpdates].(int)
			return n >= 2, nil
		},
	})
	gatt := newFakeController().
		withNotify("180d", "2a37").
		withRead("180f", "2a19")

	require.NoError(t, w.OnConnected(gatt))
	assert.Equal(t, []string{hrRef}, gatt.notifies)
	assert.Equal(t, []string{batteryRef}, gatt.reads)

	require.NoError(t, w.OnUpdate(gatt, "2a19", []byte{0x32}))
	done, err := w.OnLoop(gatt)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, w.OnUpdate(gatt, "2a37", []byte{0x00, 0x48}))
	done, err = w.OnLoop(gatt)
	require.NoError(t, err)
	assert.True(t, done)

	assert.Equal(t, 2, w.Updates())
	require.Len(t, readings, 2)
	assert.Equal(t, sink.Reading{Device: gatt.Address(), Kind: sink.KindRaw, Channel: "2a37", Raw: "0048", At: readings[1].At}, readings[1])

	err = NewRawWatcher(refs, Options{}).OnConnected(newFakeController())
	assert.ErrorIs(t, err, device.ErrConnectFailed, "no matching characteristic MUST fail the connect")
}

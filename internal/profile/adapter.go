package profile

import (
	"fmt"
	"io"
	"maps"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/sensor"
	"github.com/srg/blekeep/internal/sink"
)

// DefaultWheelCircumferenceMM is a 700x23c road wheel.
const DefaultWheelCircumferenceMM = 2096

// VarElapsed is the stop-condition variable holding seconds since the first
// successful connect.
const VarElapsed = "elapsed"

// StopCondition decides from the adapter's current variables whether the
// session should end. A true result ends the supervisor normally.
type StopCondition func(vars map[string]any) (bool, error)

// Options configures an adapter.
type Options struct {
	WindowSize           int
	WheelCircumferenceMM float64
	Until                StopCondition
	OnReading            func(sink.Reading)
	Logger               *logrus.Logger
	Now                  func() time.Time
}

// adapter holds the state every profile callback shares. Callbacks run on the
// session worker only; the mutex guards readers on other goroutines.
type adapter struct {
	opts   Options
	logger *logrus.Logger

	mu          sync.Mutex
	vars        map[string]any
	firstSeenAt time.Time
}

func newAdapter(opts Options) adapter {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetOutput(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = sensor.DefaultWindowSize
	}
	if opts.WheelCircumferenceMM <= 0 {
		opts.WheelCircumferenceMM = DefaultWheelCircumferenceMM
	}
	return adapter{opts: opts, logger: opts.Logger, vars: make(map[string]any)}
}

func (a *adapter) markConnected() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.firstSeenAt.IsZero() {
		a.firstSeenAt = a.opts.Now()
	}
}

func (a *adapter) setVar(name string, value any) {
	a.mu.Lock()
	a.vars[name] = value
	a.mu.Unlock()
}

// Vars returns a snapshot of the stop-condition variables.
func (a *adapter) Vars() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	vars := maps.Clone(a.vars)
	if vars == nil {
		vars = make(map[string]any)
	}
	if a.firstSeenAt.IsZero() {
		vars[VarElapsed] = 0.0
	} else {
		vars[VarElapsed] = a.opts.Now().Sub(a.firstSeenAt).Seconds()
	}
	return vars
}

// shouldStop evaluates the stop condition, if any.
func (a *adapter) shouldStop() (bool, error) {
	if a.opts.Until == nil {
		return false, nil
	}
	done, err := a.opts.Until(a.Vars())
	if err != nil {
		return false, fmt.Errorf("stop condition: %w", err)
	}
	return done, nil
}

func (a *adapter) emit(address, kind, channel string, values map[string]float64, raw []byte) {
	if a.opts.OnReading == nil {
		return
	}
	r := sink.Reading{
		Device:  address,
		Kind:    kind,
		Channel: channel,
		Values:  values,
		At:      a.opts.Now(),
	}
	if raw != nil {
		r.Raw = sink.RawHex(raw)
	}
	a.opts.OnReading(r)
}

// skip logs an undecodable payload; malformed updates never end a session.
func (a *adapter) skip(channel string, data []byte, err error) {
	a.logger.WithFields(logrus.Fields{
		"channel": channel,
		"raw":     sink.RawHex(data),
		"error":   err,
	}).Warn("Skipping malformed update")
}

package session

import (
	"fmt"
	"time"

	"github.com/mcuadros/go-defaults"
)

// BackoffReset selects which event restarts the backoff sequence.
type BackoffReset string

const (
	// ResetOnConnect restarts backoff once the transport reaches Connected.
	ResetOnConnect BackoffReset = "connect"
	// ResetOnData restarts backoff only after the first channel update.
	ResetOnData BackoffReset = "data"
)

// Options configures a Supervisor.
type Options struct {
	InitialBackoff    time.Duration `default:"2s"`
	BackoffMultiplier float64       `default:"1.5"`
	// MaxBackoff caps the pause between attempts; zero means unbounded.
	MaxBackoff time.Duration
	// ConnectTimeout bounds the time from the end of the backoff pause to
	// Connected; zero disables it.
	ConnectTimeout time.Duration `default:"30s"`
	// DataTimeout bounds silence once connected; zero disables it.
	DataTimeout    time.Duration `default:"60s"`
	PollInterval   time.Duration `default:"1ms"`
	ResetBackoffOn BackoffReset  `default:"connect"`
}

// DefaultOptions returns Options with every default applied.
func DefaultOptions() Options {
	var o Options
	defaults.SetDefaults(&o)
	return o
}

func (o Options) Validate() error {
	if o.InitialBackoff < 0 {
		return fmt.Errorf("initial backoff must not be negative: %s", o.InitialBackoff)
	}
	if o.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be >= 1: %g", o.BackoffMultiplier)
	}
	if o.MaxBackoff < 0 || o.ConnectTimeout < 0 || o.DataTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	switch o.ResetBackoffOn {
	case ResetOnConnect, ResetOnData:
	default:
		return fmt.Errorf("invalid backoff reset policy %q: use %q or %q", o.ResetBackoffOn, ResetOnConnect, ResetOnData)
	}
	return nil
}

// NextBackoff grows current by the multiplier, capped at MaxBackoff.
func (o Options) NextBackoff(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * o.BackoffMultiplier)
	if o.MaxBackoff > 0 && next > o.MaxBackoff {
		next = o.MaxBackoff
	}
	return next
}

// Package sink delivers decoded sensor readings to the console and to NATS.
package sink

import (
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Reading kinds published by the profile adapters.
const (
	KindHeartRate = "heart_rate"
	KindBattery   = "battery"
	KindCadence   = "cadence"
	KindRaw       = "raw"
)

// Reading is one decoded update from a peripheral.
type Reading struct {
	RunID   string             `json:"run_id,omitempty"`
	Device  string             `json:"device"`
	Kind    string             `json:"kind"`
	Channel string             `json:"channel"`
	Values  map[string]float64 `json:"values,omitempty"`
	Raw     string             `json:"raw,omitempty"`
	At      time.Time          `json:"at"`
}

// NewRunID returns a fresh identifier for one CLI run.
func NewRunID() string {
	return uuid.NewString()
}

// RawHex renders payload bytes the way readings carry them.
func RawHex(data []byte) string {
	return hex.EncodeToString(data)
}

// Keys returns the value names in sorted order.
func (r Reading) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sink consumes readings. Publish may be called from the session worker only,
// so implementations need not be safe for concurrent Publish calls, but Close
// may race with Publish.
type Sink interface {
	Publish(r Reading) error
	Close() error
}

// Multi fans a reading out to every sink, collecting errors.
type Multi []Sink

func (m Multi) Publish(r Reading) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stamped sets RunID on every reading before handing it to the next sink.
func Stamped(runID string, next Sink) Sink {
	return &stamped{runID: runID, next: next}
}

type stamped struct {
	runID string
	next  Sink
}

func (s *stamped) Publish(r Reading) error {
	r.RunID = s.runID
	return s.next.Publish(r)
}

func (s *stamped) Close() error { return s.next.Close() }

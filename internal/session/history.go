package session

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/srg/blekeep/internal/device"
)

// DefaultHistorySize is the number of finished sessions a History keeps.
const DefaultHistorySize = 32

// Record summarizes a finished session.
type Record struct {
	TryCount  int
	Backoff   time.Duration
	Connected bool
	Outcome   OutcomeKind
	Failure   device.FailureKind
	Err       string
	StartedAt time.Time
	Duration  time.Duration
}

// History is an Observer keeping the most recent finished sessions in an
// overlapping ring buffer; the oldest records are overwritten first.
type History struct {
	buffer      mpmc.RichOverlappedRingBuffer[Record]
	started     atomic.Uint64
	finished    atomic.Uint64
	connected   atomic.Uint64
	overwritten atomic.Uint64
}

// NewHistory creates a history of the given capacity (DefaultHistorySize when 0).
func NewHistory(size uint32) *History {
	if size == 0 {
		size = DefaultHistorySize
	}
	return &History{buffer: mpmc.NewOverlappedRingBuffer[Record](size)}
}

func (h *History) OnSessionStart(*Session) {
	h.started.Add(1)
}

func (h *History) OnSessionFinished(s *Session) {
	h.finished.Add(1)
	if s.GattConnected() {
		h.connected.Add(1)
	}

	out := s.Outcome()
	rec := Record{
		TryCount:  s.TryCount(),
		Backoff:   s.Backoff(),
		Connected: s.GattConnected(),
		Outcome:   out.Kind,
		Failure:   out.Failure,
		StartedAt: s.StartedAt(),
		Duration:  s.Duration(),
	}
	if out.Err != nil {
		rec.Err = out.Err.Error()
	}

	if overwrites, err := h.buffer.EnqueueM(rec); err == nil {
		h.overwritten.Add(uint64(overwrites))
	}
}

// Drain removes and returns the buffered records, oldest first.
func (h *History) Drain() []Record {
	var out []Record
	for !h.buffer.IsEmpty() {
		rec, err := h.buffer.Dequeue()
		if err != nil {
			break
		}
		out = append(out, rec)
	}
	return out
}

// Stats are lifetime counters, unaffected by Drain.
type Stats struct {
	Started     uint64
	Finished    uint64
	Connected   uint64
	Overwritten uint64
}

func (h *History) Stats() Stats {
	return Stats{
		Started:     h.started.Load(),
		Finished:    h.finished.Load(),
		Connected:   h.connected.Load(),
		Overwritten: h.overwritten.Load(),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d sessions, %d connected", s.Finished, s.Connected)
}

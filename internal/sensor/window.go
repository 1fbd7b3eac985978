package sensor

import "sync"

// DefaultWindowSize is the number of samples a SampleWindow keeps unless
// configured otherwise.
const DefaultWindowSize = 5

// MinWindowSize is the smallest window that yields a rate.
const MinWindowSize = 2

// SampleWindow keeps the newest samples of one channel, newest first.
// All methods are safe for concurrent use; each window has its own lock.
type SampleWindow struct {
	mu       sync.Mutex
	capacity int
	samples  []*RawSample
}

// NewSampleWindow creates a window holding up to capacity samples. Zero or a
// negative capacity selects DefaultWindowSize; 1 is raised to MinWindowSize.
func NewSampleWindow(capacity int) *SampleWindow {
	switch {
	case capacity <= 0:
		capacity = DefaultWindowSize
	case capacity < MinWindowSize:
		capacity = MinWindowSize
	}
	return &SampleWindow{
		capacity: capacity,
		samples:  make([]*RawSample, 0, capacity+1),
	}
}

// Add inserts s at the front and evicts the oldest sample once over capacity.
func (w *SampleWindow) Add(s *RawSample) {
	if s == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pushFront(s)
}

// Append derives the next sample from the current front and adds it.
// It returns the added sample.
func (w *SampleWindow) Append(rawValue, rawTimestamp uint32) *RawSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	var prev *RawSample
	if len(w.samples) > 0 {
		prev = w.samples[0]
	}
	s := NextSample(prev, rawValue, rawTimestamp)
	w.pushFront(s)
	return s
}

// pushFront must be called with mu held.
func (w *SampleWindow) pushFront(s *RawSample) {
	w.samples = append(w.samples, nil)
	copy(w.samples[1:], w.samples)
	w.samples[0] = s
	if len(w.samples) > w.capacity {
		w.samples[len(w.samples)-1] = nil
		w.samples = w.samples[:w.capacity]
	}
}

// RPM is the rate between the newest and the oldest sample currently held,
// or 0 with fewer than two samples.
func (w *SampleWindow) RPM() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) < 2 {
		return 0
	}
	return w.samples[0].RPMSince(w.samples[len(w.samples)-1])
}

// Latest returns the newest sample or nil.
func (w *SampleWindow) Latest() *RawSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) == 0 {
		return nil
	}
	return w.samples[0]
}

func (w *SampleWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.samples)
}

func (w *SampleWindow) Capacity() int {
	return w.capacity
}

// Samples returns a newest-first snapshot of the window.
func (w *SampleWindow) Samples() []*RawSample {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]*RawSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Reset drops every sample.
func (w *SampleWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	clear(w.samples)
	w.samples = w.samples[:0]
}

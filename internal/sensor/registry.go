package sensor

import (
	"sort"

	"github.com/cornelk/hashmap"
)

// WindowRegistry maps channel identifiers to their sample windows.
// Lookups are lock-free; each window serializes only its own channel.
type WindowRegistry struct {
	capacity int
	windows  *hashmap.Map[string, *SampleWindow]
}

func NewWindowRegistry(capacity int) *WindowRegistry {
	return &WindowRegistry{
		capacity: capacity,
		windows:  hashmap.New[string, *SampleWindow](),
	}
}

// Window returns the window for channel, creating it on first use.
func (r *WindowRegistry) Window(channel string) *SampleWindow {
	if w, ok := r.windows.Get(channel); ok {
		return w
	}
	w, _ := r.windows.GetOrInsert(channel, NewSampleWindow(r.capacity))
	return w
}

// Lookup returns the window for channel without creating it.
func (r *WindowRegistry) Lookup(channel string) (*SampleWindow, bool) {
	return r.windows.Get(channel)
}

// RPM is the windowed rate of channel, 0 if nothing was recorded yet.
func (r *WindowRegistry) RPM(channel string) float64 {
	w, ok := r.windows.Get(channel)
	if !ok {
		return 0
	}
	return w.RPM()
}

// Channels returns the known channel identifiers in sorted order.
func (r *WindowRegistry) Channels() []string {
	out := make([]string, 0, r.windows.Len())
	r.windows.Range(func(key string, _ *SampleWindow) bool {
		out = append(out, key)
		return true
	})
	sort.Strings(out)
	return out
}

// Reset clears every window but keeps the channels registered.
func (r *WindowRegistry) Reset() {
	r.windows.Range(func(_ string, w *SampleWindow) bool {
		w.Reset()
		return true
	})
}

package sensor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWindow_EvictsOldestFirst(t *testing.T) {
	w := NewSampleWindow(3)
	at := time.Unix(0, 0)

	var inserted []*RawSample
	var prev *RawSample
	// descending raw values make sure eviction follows insertion order, not value
	for _, v := range []uint32{50, 40, 30, 20, 10} {
		prev = NextSampleAt(prev, v, v*10, at)
		inserted = append(inserted, prev)
		w.Add(prev)
		assert.LessOrEqual(t, w.Len(), 3, "window MUST never exceed its capacity")
	}

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []*RawSample{inserted[4], inserted[3], inserted[2]}, w.Samples(), "window MUST hold the newest samples newest-first")
	assert.Same(t, inserted[4], w.Latest())
}

func TestSampleWindow_RPM(t *testing.T) {
	w := NewSampleWindow(5)
	assert.Equal(t, 0.0, w.RPM(), "empty window MUST report 0")
	assert.Nil(t, w.Latest())

	at := time.Unix(0, 0)
	w.Add(NextSampleAt(nil, 100, 0, at))
	assert.Equal(t, 0.0, w.RPM(), "single sample MUST report 0")

	// 1 revolution per 1024 ticks = 60 rpm
	for i := uint32(1); i <= 6; i++ {
		w.Add(NextSampleAt(w.Latest(), 100+i, i*1024, at.Add(time.Duration(i)*time.Second)))
	}
	assert.InDelta(t, 60.0, w.RPM(), 1e-9)

	samples := w.Samples()
	require.Len(t, samples, 5)
	assert.Equal(t, samples[0].RPMSince(samples[4]), w.RPM(), "rate MUST come from front and back samples")
}

func TestSampleWindow_Append(t *testing.T) {
	w := NewSampleWindow(4)
	first := w.Append(0xFFFF, 0)
	second := w.Append(1, 1024)

	assert.Equal(t, int64(0xFFFF), first.CumulativeValue())
	assert.Equal(t, int32(2), second.ValueOffset(), "append MUST derive offsets from the current front")
	assert.InDelta(t, 120.0, w.RPM(), 1e-9)
}

func TestSampleWindow_SmallCapacity(t *testing.T) {
	assert.Equal(t, DefaultWindowSize, NewSampleWindow(0).Capacity(), "unset capacity MUST use the default")
	assert.Equal(t, DefaultWindowSize, NewSampleWindow(-3).Capacity())
	assert.Equal(t, MinWindowSize, NewSampleWindow(1).Capacity(), "capacity 1 MUST become the smallest usable window, not the default")
	assert.Equal(t, 2, NewSampleWindow(2).Capacity())
}

func TestSampleWindow_Reset(t *testing.T) {
	w := NewSampleWindow(3)
	w.Append(1, 1)
	w.Append(2, 2)
	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Nil(t, w.Latest())
}

func TestSampleWindow_ConcurrentAppend(t *testing.T) {
	w := NewSampleWindow(5)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				w.Append(uint32(i), uint32(i*100))
				_ = w.RPM()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, w.Len())
}

func TestWindowRegistry(t *testing.T) {
	r := NewWindowRegistry(3)

	wheel := r.Window("wheel")
	assert.Same(t, wheel, r.Window("wheel"), "registry MUST return the same window per channel")

	crank := r.Window("crank")
	assert.NotSame(t, wheel, crank, "channels MUST get independent windows")
	assert.Equal(t, 3, crank.Capacity())

	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0.0, r.RPM("missing"))

	wheel.Append(0, 0)
	wheel.Append(2, 1024)
	assert.InDelta(t, 120.0, r.RPM("wheel"), 1e-9)
	assert.Equal(t, []string{"crank", "wheel"}, r.Channels())

	r.Reset()
	assert.Equal(t, 0, wheel.Len())
	assert.Equal(t, []string{"crank", "wheel"}, r.Channels(), "reset MUST keep channels registered")
}

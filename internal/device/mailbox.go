package device

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Update is one drained channel value.
type Update struct {
	Channel string
	Data    []byte
}

// Mailbox buffers the latest value per channel between the transport's
// delivery context and the session's poll loop. A newer value replaces an
// undrained older one; Drain empties the mailbox in one critical section.
type Mailbox struct {
	mu      sync.Mutex
	pending *orderedmap.OrderedMap[string, []byte]
	closed  bool
	dropped uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{pending: orderedmap.New[string, []byte]()}
}

// Put stores a copy of data as the latest value of channel. It reports false
// once the mailbox is closed.
func (m *Mailbox) Put(channel string, data []byte) bool {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if _, present := m.pending.Set(channel, buf); present {
		m.dropped++
	}
	return true
}

// Drain returns every pending update, oldest channel first, and clears the mailbox.
func (m *Mailbox) Drain() []Update {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending.Len() == 0 {
		return nil
	}

	out := make([]Update, 0, m.pending.Len())
	for pair := m.pending.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Update{Channel: pair.Key, Data: pair.Value})
	}
	m.pending = orderedmap.New[string, []byte]()
	return out
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending.Len()
}

// Overwritten counts values replaced before they were drained.
func (m *Mailbox) Overwritten() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close discards pending values and rejects later ones.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.pending = orderedmap.New[string, []byte]()
}

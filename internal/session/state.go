package session

import "fmt"

// State is the lifecycle position of a single Connection.
type State int32

const (
	StateIdle State = iota
	StateAwaitingTransport
	StateDiscovering
	StateConnected
	StateDisposing
	StateDisposed
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateAwaitingTransport: "awaiting_transport",
	StateDiscovering:       "discovering",
	StateConnected:         "connected",
	StateDisposing:         "disposing",
	StateDisposed:          "disposed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether the connection is being or has been torn down.
func (s State) Terminal() bool {
	return s >= StateDisposing
}

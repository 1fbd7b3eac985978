// Package device defines the boundary between connection sessions and the
// platform radio stack.
//
// It holds:
//   - the session failure taxonomy (ConnectFailed, Disconnected, DataTimeout, Aborted)
//   - the Transport capability and the events a transport delivers
//   - the Mailbox that hands channel values from the delivery context to the poll loop
//   - UUID normalization for channel identifiers
//
// Platform implementations live in sub-packages (see go-ble).
package device

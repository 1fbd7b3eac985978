package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
)

// DefaultPollInterval is the pause between poll iterations and between
// connect-wait checks.
const DefaultPollInterval = time.Millisecond

// ErrAlreadyRun is returned when Run is called on a used Connection.
var ErrAlreadyRun = errors.New("connection already run")

// Connection drives one attempt against a peripheral: resolve, connect,
// discover, poll, tear down. A Connection is single-use.
type Connection struct {
	address      string
	transport    device.Transport
	pollInterval time.Duration
	logger       *logrus.Logger
	mailbox      *device.Mailbox

	mu              sync.Mutex // guards the fields below, written by the transport
	state           State
	linkUp          bool
	linkLost        bool
	linkStatus      device.Status
	discovered      bool
	discoveryStatus device.Status

	started   bool
	cancel    context.CancelFunc
	notifying []string
	teardown  sync.Once
}

// NewConnection creates an idle connection to address over transport.
// A non-positive pollInterval selects DefaultPollInterval.
func NewConnection(address string, transport device.Transport, pollInterval time.Duration, logger *logrus.Logger) *Connection {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Connection{
		address:      address,
		transport:    transport,
		pollInterval: pollInterval,
		logger:       logger,
		mailbox:      device.NewMailbox(),
		state:        StateIdle,
	}
}

func (c *Connection) Address() string {
	return c.address
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the link is up and discovery succeeded.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected && c.linkUp
}

// Run performs the attempt and returns when the callback ends the loop
// (nil), or with the first error encountered. Teardown always runs before
// Run returns. Cancelling ctx or abort returning true yields an Aborted error.
func (c *Connection) Run(ctx context.Context, cb Callback, abort AbortFunc) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyRun
	}
	c.started = true
	c.state = StateAwaitingTransport
	c.mu.Unlock()

	if abort == nil {
		abort = never
	}
	aborted := func() bool { return ctx.Err() != nil || abort() }

	connCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer func() {
		if err := c.Close(); err != nil {
			c.logger.WithError(err).WithField("address", c.address).Warn("Transport close failed")
		}
	}()

	log := c.logger.WithField("address", c.address)

	ref, err := c.transport.Resolve(c.address)
	if err != nil {
		return asConnectFailed("resolve "+c.address, err)
	}

	log.WithField("name", ref.Name).Debug("Connecting...")
	if err := c.transport.BeginConnect(connCtx, ref, &linkEvents{c: c}); err != nil {
		return asConnectFailed("begin connect", err)
	}

	if err := c.awaitConnected(ctx, aborted); err != nil {
		return err
	}
	log.Info("Connected")

	gatt := &controller{c: c}
	if err := cb.OnConnected(gatt); err != nil {
		return err
	}

	return c.poll(ctx, gatt, cb, aborted)
}

func (c *Connection) awaitConnected(ctx context.Context, aborted func() bool) error {
	for {
		c.mu.Lock()
		state := c.state
		lost, linkStatus := c.linkLost, c.linkStatus
		discovered, discoveryStatus := c.discovered, c.discoveryStatus
		c.mu.Unlock()

		switch {
		case state == StateConnected:
			return nil
		case discovered && !discoveryStatus.OK():
			return device.NewConnectFailed(fmt.Sprintf("service discovery failed (status 0x%x)", int(discoveryStatus)), nil)
		case lost:
			return device.NewConnectFailed(fmt.Sprintf("link closed while connecting (status 0x%x)", int(linkStatus)), nil)
		}

		if aborted() {
			return abortedError(ctx, "aborted while connecting")
		}
		pause(ctx, c.pollInterval)
	}
}

func (c *Connection) poll(ctx context.Context, gatt device.Controller, cb Callback, aborted func() bool) error {
	for {
		if !c.IsConnected() {
			return device.NewDisconnected("link lost while polling")
		}

		for _, u := range c.mailbox.Drain() {
			if err := cb.OnUpdate(gatt, u.Channel, u.Data); err != nil {
				return err
			}
		}

		done, err := cb.OnLoop(gatt)
		if err != nil {
			return err
		}
		if done {
			c.logger.WithField("address", c.address).Debug("Callback ended the session")
			return nil
		}

		if aborted() {
			return abortedError(ctx, "aborted while polling")
		}
		pause(ctx, c.pollInterval)
	}
}

// Close tears the connection down. It runs once; later calls return nil.
func (c *Connection) Close() error {
	var err error
	c.teardown.Do(func() {
		c.mu.Lock()
		c.started = true
		c.state = StateDisposing
		notifying := c.notifying
		c.notifying = nil
		c.mu.Unlock()

		if c.cancel != nil {
			c.cancel()
		}

		c.logger.WithFields(logrus.Fields{
			"address":       c.address,
			"subscriptions": len(notifying),
		}).Debug("Disposing connection...")

		err = c.transport.DisconnectAndClose()
		c.mailbox.Close()

		c.mu.Lock()
		c.state = StateDisposed
		c.linkUp = false
		c.mu.Unlock()
	})
	return err
}

// linkEvents receives transport notifications for a Connection.
type linkEvents struct {
	c *Connection
}

func (e *linkEvents) OnConnectionStateChanged(connected bool, status device.Status) {
	c := e.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return
	}
	if connected && status.OK() {
		c.linkUp = true
		if c.state == StateAwaitingTransport {
			c.state = StateDiscovering
		}
		return
	}
	c.linkUp = false
	c.linkLost = true
	c.linkStatus = status
}

func (e *linkEvents) OnDiscoveryComplete(status device.Status) {
	c := e.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Terminal() {
		return
	}
	c.discovered = true
	c.discoveryStatus = status
	if status.OK() && c.linkUp {
		c.state = StateConnected
	}
}

func (e *linkEvents) OnChannelValue(channel string, data []byte) {
	e.c.mailbox.Put(device.NormalizeUUID(channel), data)
}

// controller is the Controller handed to callbacks.
type controller struct {
	c *Connection
}

func (g *controller) Address() string {
	return g.c.address
}

func (g *controller) RequestRead(service, characteristic string) bool {
	return g.c.transport.RequestRead(device.NormalizeUUID(service), device.NormalizeUUID(characteristic))
}

func (g *controller) RequestNotify(service, characteristic string) bool {
	characteristic = device.NormalizeUUID(characteristic)
	if !g.c.transport.RequestNotify(device.NormalizeUUID(service), characteristic) {
		return false
	}
	g.c.mu.Lock()
	g.c.notifying = append(g.c.notifying, characteristic)
	g.c.mu.Unlock()
	return true
}

func asConnectFailed(msg string, err error) error {
	if device.KindOf(err) != "" {
		return err
	}
	return device.NewConnectFailed(msg, err)
}

func abortedError(ctx context.Context, msg string) error {
	if cause := context.Cause(ctx); cause != nil {
		return device.NewAborted(msg, cause)
	}
	return device.NewAborted(msg, nil)
}

// pause sleeps for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

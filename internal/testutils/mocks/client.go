//go:build test

// Package mocks holds testify mocks of the go-ble surface used by the transport.
package mocks

import (
	"sync"

	blelib "github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// Client mocks the subset of ble.Client the go-ble transport calls.
// Handlers passed to Subscribe are captured for Notify.
type Client struct {
	mock.Mock

	mu           sync.Mutex
	handlers     map[*blelib.Characteristic]blelib.NotificationHandler
	disconnected chan struct{}
}

func NewClient() *Client {
	return &Client{
		handlers:     make(map[*blelib.Characteristic]blelib.NotificationHandler),
		disconnected: make(chan struct{}),
	}
}

func (c *Client) DiscoverProfile(force bool) (*blelib.Profile, error) {
	args := c.Called(force)
	profile, _ := args.Get(0).(*blelib.Profile)
	return profile, args.Error(1)
}

func (c *Client) ReadCharacteristic(char *blelib.Characteristic) ([]byte, error) {
	args := c.Called(char)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (c *Client) Subscribe(char *blelib.Characteristic, ind bool, h blelib.NotificationHandler) error {
	args := c.Called(char, ind, h)
	if err := args.Error(0); err != nil {
		return err
	}
	c.mu.Lock()
	c.handlers[char] = h
	c.mu.Unlock()
	return nil
}

func (c *Client) Unsubscribe(char *blelib.Characteristic, ind bool) error {
	args := c.Called(char, ind)
	c.mu.Lock()
	delete(c.handlers, char)
	c.mu.Unlock()
	return args.Error(0)
}

func (c *Client) CancelConnection() error {
	return c.Called().Error(0)
}

// Disconnected mirrors the go-ble client's link-loss channel.
func (c *Client) Disconnected() <-chan struct{} {
	return c.disconnected
}

// Notify pushes data to the handler subscribed on char and reports whether
// one was registered.
func (c *Client) Notify(char *blelib.Characteristic, data []byte) bool {
	c.mu.Lock()
	h := c.handlers[char]
	c.mu.Unlock()
	if h == nil {
		return false
	}
	h(data)
	return true
}

// Subscribed reports whether a handler is registered for char.
func (c *Client) Subscribed(char *blelib.Characteristic) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers[char] != nil
}

// DropLink simulates the peripheral going away.
func (c *Client) DropLink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.disconnected:
	default:
		close(c.disconnected)
	}
}

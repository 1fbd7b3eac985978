package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// NATSConfig holds the NATS connection settings.
type NATSConfig struct {
	URL           string        `yaml:"url"`
	Subject       string        `yaml:"subject" default:"blekeep.readings"`
	Name          string        `yaml:"name" default:"blekeep"`
	MaxReconnects int           `yaml:"max_reconnects" default:"60"`
	ReconnectWait time.Duration `yaml:"reconnect_wait" default:"2s"`
}

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes readings as JSON to "<subject>.<kind>".
type NATSSink struct {
	mu      sync.Mutex
	conn    Publisher
	subject string
	closed  bool
}

// NewNATSSink wraps an established connection.
func NewNATSSink(conn Publisher, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: strings.TrimSuffix(subject, ".")}
}

// DialNATS connects to the server in cfg.URL.
func DialNATS(cfg NATSConfig, logger *logrus.Logger) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WithField("error", err).Warn("Disconnected from NATS")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	logger.WithFields(logrus.Fields{
		"url":     cfg.URL,
		"subject": cfg.Subject,
	}).Info("Publishing readings to NATS")
	return NewNATSSink(nc, cfg.Subject), nil
}

// Subject returns the subject a reading of the given kind is published to.
func (s *NATSSink) Subject(kind string) string {
	if kind == "" {
		return s.subject
	}
	return s.subject + "." + kind
}

func (s *NATSSink) Publish(r Reading) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode reading: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.conn.Publish(s.Subject(r.Kind), data); err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Drain()
}

package session

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/device"
)

// Supervisor keeps a peripheral connected: it runs one Connection after
// another with growing backoff, a connect timeout and a data watchdog, until
// the callback ends a session or the caller cancels.
type Supervisor struct {
	address string
	factory device.TransportFactory
	opts    Options
	logger  *logrus.Logger
}

// NewSupervisor creates a supervisor for address. factory is called once per
// attempt so each attempt owns a fresh transport.
func NewSupervisor(address string, factory device.TransportFactory, opts Options, logger *logrus.Logger) *Supervisor {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Supervisor{
		address: address,
		factory: factory,
		opts:    opts,
		logger:  logger,
	}
}

func (s *Supervisor) Options() Options {
	return s.opts
}

// Run supervises sessions until one completes (nil), the caller cancels
// (an Aborted error, unwrapping to the context cause when ctx was cancelled),
// or the callback fails with an error outside the session taxonomy.
// ConnectFailed, Disconnected and DataTimeout are never returned.
func (s *Supervisor) Run(ctx context.Context, cb Callback, observer Observer, abort AbortFunc) error {
	if err := s.opts.Validate(); err != nil {
		return err
	}
	if observer == nil {
		observer = ObserverFuncs{}
	}
	if abort == nil {
		abort = never
	}
	callerAborted := func() bool { return ctx.Err() != nil || abort() }

	backoff := s.opts.InitialBackoff
	for try := 0; ; try++ {
		sess := newSession(try, backoff)
		observer.OnSessionStart(sess)

		out := s.attempt(ctx, sess, cb, callerAborted)

		if out.ResetBackoff {
			backoff = s.opts.InitialBackoff
		}
		backoff = s.opts.NextBackoff(backoff)
		sess.finish(out)
		observer.OnSessionFinished(sess)

		log := s.logger.WithFields(logrus.Fields{
			"address":   s.address,
			"try":       try,
			"connected": sess.GattConnected(),
			"outcome":   out.Kind.String(),
		})

		switch out.Kind {
		case Completed:
			log.Info("Session completed")
			return nil
		case Aborted:
			log.Info("Session aborted by caller")
			return out.Err
		case Fatal:
			log.WithError(out.Err).Error("Session failed")
			return out.Err
		}

		log.WithError(out.Err).WithField("next_backoff", backoff).Warn("Session failed, retrying")
	}
}

func (s *Supervisor) attempt(ctx context.Context, sess *Session, cb Callback, callerAborted func() bool) Outcome {
	log := s.logger.WithFields(logrus.Fields{"address": s.address, "try": sess.TryCount()})

	log.WithField("backoff", sess.Backoff()).Debug("Waiting before connect...")
	if !s.sleep(ctx, sess.Backoff(), callerAborted) {
		return Outcome{Kind: Aborted, Failure: device.Aborted, Err: abortedError(ctx, "aborted during backoff")}
	}

	transport, err := s.factory()
	if err != nil {
		return classify(asConnectFailed("create transport", err), callerAborted())
	}

	connectDeadline := time.Now().Add(s.opts.ConnectTimeout)
	abort := func() bool {
		if callerAborted() {
			return true
		}
		return s.opts.ConnectTimeout > 0 && !sess.GattConnected() && time.Now().After(connectDeadline)
	}

	wd := newWatchdog(cb, sess, s.opts.DataTimeout)
	conn := NewConnection(s.address, transport, s.opts.PollInterval, s.logger)
	err = conn.Run(ctx, wd, abort)

	out := classify(err, callerAborted())
	switch s.opts.ResetBackoffOn {
	case ResetOnData:
		out.ResetBackoff = wd.receivedData
	default:
		out.ResetBackoff = wd.connected
	}
	return out
}

// sleep waits d in PollInterval steps and reports false as soon as the
// caller aborts.
func (s *Supervisor) sleep(ctx context.Context, d time.Duration, callerAborted func() bool) bool {
	tick := s.opts.PollInterval
	if tick <= 0 {
		tick = DefaultPollInterval
	}

	deadline := time.Now().Add(d)
	for {
		if callerAborted() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		pause(ctx, min(tick, remaining))
	}
}

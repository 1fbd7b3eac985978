//go:build test

package main

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/blekeep/internal/device"
	"github.com/srg/blekeep/internal/testutils"
)

// lockedBuffer is a bytes.Buffer safe for the session worker to write while
// the test goroutine waits.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CommandResult is what one CLI invocation produced.
type CommandResult struct {
	Stdout *lockedBuffer
	Stderr *lockedBuffer
	Done   <-chan error
}

// Wait returns the command error, failing the test on timeout.
func (r *CommandResult) Wait(s *CommandTestSuite) error {
	select {
	case err := <-r.Done:
		return err
	case <-time.After(s.TestTimeout):
		s.FailNow("command MUST finish in time", "stderr:\n%s", r.Stderr.String())
		return nil
	}
}

// CommandTestSuite runs blekeep commands against scripted fake peripherals.
// All cmd/blekeep test suites should embed this instead of PeripheralSuite.
type CommandTestSuite struct {
	testutils.PeripheralSuite

	Factory *testutils.FakeTransportFactory

	originalTransportFactory func(*logrus.Logger) device.TransportFactory
}

func (s *CommandTestSuite) SetupSuite() {
	s.PeripheralSuite.SetupSuite()
	s.originalTransportFactory = transportFactory
}

func (s *CommandTestSuite) TearDownSuite() {
	transportFactory = s.originalTransportFactory
}

// SetupTest builds the fake factory from the configured peripheral.
// Suites customizing the peripheral configure it before calling this.
func (s *CommandTestSuite) SetupTest() {
	s.PeripheralSuite.SetupTest()
	s.Factory = s.Peripheral.BuildFactory()
	transportFactory = func(*logrus.Logger) device.TransportFactory {
		return s.Factory.Factory()
	}
	resetFlags(rootCmd)
}

// Start runs the CLI with args in the background.
func (s *CommandTestSuite) Start(ctx context.Context, args ...string) *CommandResult {
	res := &CommandResult{Stdout: &lockedBuffer{}, Stderr: &lockedBuffer{}}
	done := make(chan error, 1)
	res.Done = done

	rootCmd.SetOut(res.Stdout)
	rootCmd.SetErr(res.Stderr)
	rootCmd.SetArgs(args)
	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()
	return res
}

// Execute runs the CLI with args and waits for it.
func (s *CommandTestSuite) Execute(args ...string) (*CommandResult, error) {
	res := s.Start(context.Background(), args...)
	return res, res.Wait(s)
}

// NextTransport waits for the supervisor to create its next transport.
func (s *CommandTestSuite) NextTransport(created <-chan *testutils.FakeTransport) *testutils.FakeTransport {
	select {
	case t := <-created:
		return t
	case <-time.After(s.TestTimeout):
		s.FailNow("transport MUST be created in time")
		return nil
	}
}

// resetFlags restores every flag of cmd and its children to its default so
// one test's flags do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

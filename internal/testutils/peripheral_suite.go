//go:build test

package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// TestAddress is the peripheral address used by session-level suites.
const TestAddress = "00:00:00:00:00:01"

// PeripheralSuite is a testify suite backed by scripted fake peripherals.
//
// Basic usage (default heart rate + battery profile):
//
//	type SessionSuite struct {
//	    testutils.PeripheralSuite
//	}
//
//	func TestSessionSuite(t *testing.T) {
//	    suite.Run(t, new(SessionSuite))
//	}
//
// Custom profile usage:
//
//	func (s *CadenceSuite) SetupTest() {
//	    s.WithPeripheral().
//	        WithService("1816").
//	        WithCharacteristic("2A5B", "notify", nil)
//
//	    s.PeripheralSuite.SetupTest() // Call parent last to apply configuration
//	}
type PeripheralSuite struct {
	suite.Suite

	Helper      *TestHelper
	Logger      *logrus.Logger
	TestTimeout time.Duration

	// Peripheral is the builder for the current test; reset after each test.
	Peripheral *PeripheralBuilder
}

// SetupSuite is called once before all tests in the suite.
func (s *PeripheralSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second
}

// SetupTest installs the default profile unless the test configured one.
func (s *PeripheralSuite) SetupTest() {
	if s.Peripheral == nil {
		s.Peripheral = DefaultPeripheral()
	}
}

// TearDownTest resets the peripheral builder after each test.
func (s *PeripheralSuite) TearDownTest() {
	s.Peripheral = nil
}

// WithPeripheral returns the peripheral builder for fluent configuration.
func (s *PeripheralSuite) WithPeripheral() *PeripheralBuilder {
	if s.Peripheral == nil {
		s.Peripheral = NewPeripheralBuilder()
	}
	return s.Peripheral
}

// EventuallyTrue waits up to TestTimeout for cond.
func (s *PeripheralSuite) EventuallyTrue(cond func() bool, msg string) {
	s.Require().Eventually(cond, s.TestTimeout, time.Millisecond, msg)
}

// DefaultPeripheral describes a heart rate monitor with a battery service at 50%.
func DefaultPeripheral() *PeripheralBuilder {
	return NewPeripheralBuilder().
		FromJSON(`
		{
			"services": [
				{
					"uuid": "180F",
					"characteristics": [
						{ "uuid": "2A19", "properties": "read,notify", "value": [50] }
					]
				},
				{
					"uuid": "180D",
					"characteristics": [
						{ "uuid": "2A37", "properties": "notify" }
					]
				}
			]
		}`)
}

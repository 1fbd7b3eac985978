package lua

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/blekeep/internal/testutils"
	"github.com/stretchr/testify/suite"
)

type ConditionTestSuite struct {
	suite.Suite

	logger *logrus.Logger
}

func (suite *ConditionTestSuite) SetupSuite() {
	suite.logger = testutils.NewTestHelper(suite.T()).Logger
}

func (suite *ConditionTestSuite) newCondition(expr string) *Condition {
	cond, err := NewCondition(expr, suite.logger)
	suite.Require().NoError(err, "expression %q MUST compile", expr)
	suite.T().Cleanup(cond.Close)
	return cond
}

func (suite *ConditionTestSuite) TestEvaluatesWithVariables() {
	// GOAL: Verify expressions see variables as globals and use Lua truthiness
	//
	// TEST SCENARIO: bind vars → evaluate → compare against expected boolean

	tests := []struct {
		name string
		expr string
		vars map[string]any
		want bool
	}{
		{name: "integer comparison true", expr: "bpm > 180", vars: map[string]any{"bpm": 181}, want: true},
		{name: "integer comparison false", expr: "bpm > 180", vars: map[string]any{"bpm": 120}, want: false},
		{name: "float and or", expr: "bpm > 180 or elapsed > 600", vars: map[string]any{"bpm": 90, "elapsed": 600.5}, want: true},
		{name: "boolean variable", expr: "not contact", vars: map[string]any{"contact": false}, want: true},
		{name: "string variable", expr: "last == '0048'", vars: map[string]any{"last": "0048"}, want: true},
		{name: "number is truthy", expr: "updates", vars: map[string]any{"updates": 0}, want: true},
		{name: "missing variable is nil", expr: "battery", vars: map[string]any{}, want: false},
		{name: "standard library", expr: "math.floor(speed) == 30", vars: map[string]any{"speed": 30.18}, want: true},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			got, err := suite.newCondition(tt.expr).Eval(tt.vars)
			suite.Require().NoError(err)
			suite.Assert().Equal(tt.want, got)
		})
	}
}

func (suite *ConditionTestSuite) TestStaleVariablesAreCleared() {
	// GOAL: Verify a variable absent from the next evaluation no longer leaks its old value
	//
	// TEST SCENARIO: battery=10 → true → battery missing → false

	cond := suite.newCondition("battery ~= nil and battery < 20")

	got, err := cond.Eval(map[string]any{"battery": 10})
	suite.Require().NoError(err)
	suite.Assert().True(got)

	got, err = cond.Eval(map[string]any{"bpm": 70})
	suite.Require().NoError(err)
	suite.Assert().False(got, "previous value MUST be reset to nil")
}

func (suite *ConditionTestSuite) TestSyntaxError() {
	_, err := NewCondition("bpm >", suite.logger)
	suite.Require().Error(err)
	suite.Assert().ErrorIs(err, ErrSyntax)
	suite.Assert().Contains(err.Error(), "bpm >")

	_, err = NewCondition("   ", suite.logger)
	suite.Assert().Error(err, "empty condition MUST be rejected")
}

func (suite *ConditionTestSuite) TestRuntimeError() {
	// GOAL: Verify evaluation failures are reported and leave the state usable
	//
	// TEST SCENARIO: compare nil with number → runtime error → bind value → evaluates

	cond := suite.newCondition("bpm > 180")

	_, err := cond.Eval(nil)
	suite.Require().Error(err)
	suite.Assert().ErrorIs(err, ErrRuntime)

	got, err := cond.Eval(map[string]any{"bpm": 200})
	suite.Require().NoError(err, "state MUST stay usable after a runtime error")
	suite.Assert().True(got)
}

func (suite *ConditionTestSuite) TestIgnoresNonIdentifiers() {
	cond := suite.newCondition("x == 1")
	got, err := cond.Eval(map[string]any{"x": 1, "2a37": 5, "end": true, "__until": false})
	suite.Require().NoError(err)
	suite.Assert().True(got, "condition chunk MUST NOT be overwritten by variables")
}

func (suite *ConditionTestSuite) TestClosed() {
	cond, err := NewCondition("true", suite.logger)
	suite.Require().NoError(err)
	cond.Close()
	cond.Close()

	_, err = cond.Eval(nil)
	suite.Assert().Error(err)
}

func (suite *ConditionTestSuite) TestConcurrentEval() {
	cond := suite.newCondition("n % 2 == 0")

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := cond.Eval(map[string]any{"n": n})
			if err != nil {
				errs <- err
				return
			}
			suite.Assert().Equal(n%2 == 0, got)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		suite.Fail(err.Error())
	}
}

func TestConditionTestSuite(t *testing.T) {
	suite.Run(t, new(ConditionTestSuite))
}

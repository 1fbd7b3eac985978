// Package lua evaluates user supplied Lua expressions that decide when a
// monitoring session is done.
package lua

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aarzilli/golua/lua"
	"github.com/sirupsen/logrus"
)

const conditionGlobal = "__until"

// Condition is a compiled boolean Lua expression such as
// `bpm > 180 or elapsed > 600`. Variables are exposed as globals.
type Condition struct {
	mu     sync.Mutex
	state  *lua.State
	expr   string
	logger *logrus.Logger

	// globals set by the previous Eval
	assigned map[string]struct{}
}

// NewCondition compiles expr. The returned Condition must be closed.
func NewCondition(expr string, logger *logrus.Logger) (*Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, &LuaError{Type: "api", Message: "empty condition"}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	L := lua.NewState()
	L.OpenLibs()

	if status := L.LoadString("return (" + expr + ")"); status != 0 {
		msg := L.ToString(-1)
		L.Close()
		line, message := parseMessage(msg)
		return nil, &LuaError{Type: "syntax", Message: message, Line: line, Source: expr}
	}
	L.SetGlobal(conditionGlobal)

	logger.WithField("expression", expr).Debug("Compiled stop condition")
	return &Condition{
		state:    L,
		expr:     expr,
		logger:   logger,
		assigned: make(map[string]struct{}),
	}, nil
}

// String returns the source expression.
func (c *Condition) String() string {
	return c.expr
}

// Eval binds vars as globals and evaluates the expression with Lua
// truthiness. Variables from a previous call that are missing now are
// reset to nil.
func (c *Condition) Eval(vars map[string]any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	L := c.state
	if L == nil {
		return false, &LuaError{Type: "api", Message: "condition is closed", Source: c.expr}
	}
	top := L.GetTop()
	defer L.SetTop(top)

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for name := range c.assigned {
		if _, ok := vars[name]; !ok {
			L.PushNil()
			L.SetGlobal(name)
			delete(c.assigned, name)
		}
	}
	for _, name := range names {
		if !isIdentifier(name) {
			c.logger.WithField("variable", name).Debug("Skipping variable that is not a Lua identifier")
			continue
		}
		pushValue(L, vars[name])
		L.SetGlobal(name)
		c.assigned[name] = struct{}{}
	}

	L.GetGlobal(conditionGlobal)
	if err := L.Call(0, 1); err != nil {
		line, message := parseMessage(err.Error())
		return false, &LuaError{Type: "runtime", Message: message, Line: line, Source: c.expr, Underlying: err}
	}
	return L.ToBoolean(-1), nil
}

// Close releases the Lua state. Safe to call more than once.
func (c *Condition) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		c.state.Close()
		c.state = nil
	}
}

func pushValue(L *lua.State, v any) {
	switch val := v.(type) {
	case nil:
		L.PushNil()
	case bool:
		L.PushBoolean(val)
	case int:
		L.PushInteger(int64(val))
	case int64:
		L.PushInteger(val)
	case uint8:
		L.PushInteger(int64(val))
	case uint16:
		L.PushInteger(int64(val))
	case float32:
		L.PushNumber(float64(val))
	case float64:
		L.PushNumber(val)
	case string:
		L.PushString(val)
	default:
		L.PushString(fmt.Sprint(val))
	}
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true, "end": true,
	"false": true, "for": true, "function": true, "if": true, "in": true, "local": true,
	"nil": true, "not": true, "or": true, "repeat": true, "return": true, "then": true,
	"true": true, "until": true, "while": true,
}

func isIdentifier(name string) bool {
	if name == "" || luaKeywords[name] || name == conditionGlobal {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

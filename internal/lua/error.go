package lua

import (
	"errors"
	"fmt"
	"strings"
)

// LuaError describes a failure to compile or evaluate a condition.
type LuaError struct {
	Type       string // "syntax", "runtime", "api"
	Message    string
	Line       int
	Source     string
	Underlying error
}

func (e *LuaError) Error() string {
	var parts []string
	if e.Source != "" {
		parts = append(parts, fmt.Sprintf("in %q", e.Source))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", e.Line))
	}

	prefix := fmt.Sprintf("Lua %s error", e.Type)
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s (%s)", prefix, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *LuaError) Unwrap() error {
	return e.Underlying
}

// Is matches another LuaError of the same Type.
func (e *LuaError) Is(target error) bool {
	var luaErr *LuaError
	if errors.As(target, &luaErr) {
		return e.Type == luaErr.Type
	}
	return false
}

// Sentinels for errors.Is checks by type.
var (
	ErrSyntax  = &LuaError{Type: "syntax"}
	ErrRuntime = &LuaError{Type: "runtime"}
)

// parseMessage splits `[string "chunk"]:1: message` into line and message.
func parseMessage(msg string) (int, string) {
	parts := strings.SplitN(msg, ":", 3)
	if len(parts) < 3 {
		return 0, msg
	}
	var line int
	if n, err := fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &line); err != nil || n != 1 {
		return 0, msg
	}
	// drop the traceback appended by protected calls
	message, _, _ := strings.Cut(strings.TrimSpace(parts[2]), "\nstack traceback:")
	return line, message
}

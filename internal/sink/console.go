package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Format selects the console rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q (must be text or json)", s)
	}
}

// ConsoleSink writes one line per reading.
type ConsoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	kind   *color.Color
	value  *color.Color
	closed bool
}

// NewConsoleSink creates a console sink. Colors apply to the text format only.
func NewConsoleSink(w io.Writer, format Format, colored bool) *ConsoleSink {
	kind := color.New(color.FgCyan, color.Bold)
	value := color.New(color.FgGreen)
	if colored {
		kind.EnableColor()
		value.EnableColor()
	} else {
		kind.DisableColor()
		value.DisableColor()
	}
	return &ConsoleSink{w: w, format: format, kind: kind, value: value}
}

func (c *ConsoleSink) Publish(r Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	if c.format == FormatJSON {
		return json.NewEncoder(c.w).Encode(r)
	}
	_, err := fmt.Fprintln(c.w, c.formatText(r))
	return err
}

func (c *ConsoleSink) formatText(r Reading) string {
	var b strings.Builder
	b.WriteString(r.At.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(c.kind.Sprint(r.Kind))
	if r.Channel != "" {
		b.WriteString(" [" + r.Channel + "]")
	}
	for _, k := range r.Keys() {
		b.WriteString(" " + k + "=")
		b.WriteString(c.value.Sprint(strconv.FormatFloat(r.Values[k], 'f', -1, 64)))
	}
	if r.Raw != "" {
		b.WriteString(" raw=" + r.Raw)
	}
	return b.String()
}

// Close stops further output. The writer is owned by the caller.
func (c *ConsoleSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

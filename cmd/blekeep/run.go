package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	goble "github.com/srg/blekeep/internal/device/go-ble"
	"github.com/srg/blekeep/internal/lua"
	"github.com/srg/blekeep/internal/profile"
	"github.com/srg/blekeep/internal/session"
	"github.com/srg/blekeep/internal/sink"
	"github.com/srg/blekeep/pkg/config"
	"golang.org/x/term"
)

// Seams replaced by command tests.
var (
	transportFactory = goble.Factory
	dialNATS         = func(cfg sink.NATSConfig, logger *logrus.Logger) (sink.Sink, error) {
		return sink.DialNATS(cfg, logger)
	}
)

// callbackBuilder creates the profile callback for one supervised run.
type callbackBuilder func(cmd *cobra.Command, opts profile.Options) (session.Callback, error)

// addSessionFlags registers the flags every sensor command shares.
func addSessionFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	flags := cmd.Flags()

	flags.Duration("initial-backoff", def.InitialBackoff, "Pause before the first connect and after a healthy session")
	flags.Float64("backoff-multiplier", def.BackoffMultiplier, "Backoff growth factor between failed attempts")
	flags.Duration("max-backoff", 0, "Backoff cap (default: --connect-timeout when given, otherwise unbounded)")
	flags.Duration("connect-timeout", def.ConnectTimeout, "Time allowed from the end of backoff to connected (0 disables)")
	flags.Duration("data-timeout", def.DataTimeout, "Reconnect after this long without an update (0 disables)")
	flags.String("reset-backoff-on", string(def.ResetBackoffOn), "Event that restarts backoff: connect or data")
	flags.Int("window", def.WindowSize, "Samples per rate window")
	flags.String("until", "", "Lua expression ending the run when true, e.g. 'bpm > 180 or elapsed > 600'")
	flags.String("format", def.Format, "Output format: text or json")
	flags.String("color", def.Color, "Colored output: auto, always or never")
	flags.String("nats-url", "", "Also publish readings to this NATS server")
	flags.String("nats-subject", def.NATS.Subject, "NATS subject prefix; the reading kind is appended")
}

// loadConfig layers defaults, the --config file, BLEKEEP_* variables and
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("initial-backoff") {
		cfg.InitialBackoff, _ = flags.GetDuration("initial-backoff")
	}
	if flags.Changed("backoff-multiplier") {
		cfg.BackoffMultiplier, _ = flags.GetFloat64("backoff-multiplier")
	}
	if flags.Changed("connect-timeout") {
		d, _ := flags.GetDuration("connect-timeout")
		cfg.SetConnectTimeout(d)
	}
	if flags.Changed("max-backoff") {
		d, _ := flags.GetDuration("max-backoff")
		cfg.SetMaxBackoff(d)
	}
	if flags.Changed("data-timeout") {
		cfg.DataTimeout, _ = flags.GetDuration("data-timeout")
	}
	if flags.Changed("reset-backoff-on") {
		v, _ := flags.GetString("reset-backoff-on")
		cfg.ResetBackoffOn = session.BackoffReset(v)
	}
	if flags.Changed("window") {
		cfg.WindowSize, _ = flags.GetInt("window")
	}
	if flags.Changed("wheel-mm") {
		cfg.WheelCircumferenceMM, _ = flags.GetFloat64("wheel-mm")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("color") {
		cfg.Color, _ = flags.GetString("color")
	}
	if flags.Changed("nats-url") {
		cfg.NATS.URL, _ = flags.GetString("nats-url")
	}
	if flags.Changed("nats-subject") {
		cfg.NATS.Subject, _ = flags.GetString("nats-subject")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runSupervised keeps address connected with the callback from build until
// the stop condition holds, the user interrupts or a fatal error occurs.
func runSupervised(cmd *cobra.Command, address string, build callbackBuilder) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	var until profile.StopCondition
	if expr, _ := cmd.Flags().GetString("until"); expr != "" {
		cond, err := lua.NewCondition(expr, logger)
		if err != nil {
			return err
		}
		defer cond.Close()
		until = (&untilCondition{cond: cond, logger: logger}).Eval
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	colored := cfg.UseColor(isTerminal(out))

	readings, err := openSinks(cfg, out, colored, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := readings.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close output")
		}
	}()

	cb, err := build(cmd, profile.Options{
		WindowSize:           cfg.WindowSize,
		WheelCircumferenceMM: cfg.WheelCircumferenceMM,
		Until:                until,
		Logger:               logger,
		OnReading: func(r sink.Reading) {
			if err := readings.Publish(r); err != nil {
				logger.WithError(err).WithField("kind", r.Kind).Warn("Failed to publish reading")
			}
		},
	})
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	history := session.NewHistory(session.DefaultHistorySize)
	status := newStatusPrinter(errOut, address, colored)
	supervisor := session.NewSupervisor(address, transportFactory(logger), cfg.SessionOptions(), logger)

	fmt.Fprintf(errOut, "Keeping %s connected. Press Ctrl+C to stop...\n", address)
	err = supervisor.Run(ctx, cb, session.Observers{history, status}, nil)
	status.summary(history)
	return err
}

// untilCondition evaluates --until on the session worker. A runtime error
// (typically a variable that has no value yet) counts as "not yet"; each
// distinct message is logged once.
type untilCondition struct {
	cond    *lua.Condition
	logger  *logrus.Logger
	lastErr string
}

func (u *untilCondition) Eval(vars map[string]any) (bool, error) {
	done, err := u.cond.Eval(vars)
	if err == nil || !errors.Is(err, lua.ErrRuntime) {
		return done, err
	}
	if msg := err.Error(); msg != u.lastErr {
		u.lastErr = msg
		u.logger.WithFields(logrus.Fields{
			"expression": u.cond.String(),
			"error":      msg,
		}).Debug("Stop condition not evaluable yet")
	}
	return false, nil
}

// openSinks builds the console output plus NATS when configured; every
// reading is stamped with a per-run id.
func openSinks(cfg *config.Config, out io.Writer, colored bool, logger *logrus.Logger) (sink.Sink, error) {
	format, err := sink.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	sinks := sink.Multi{sink.NewConsoleSink(out, format, colored)}
	if cfg.NATS.URL != "" {
		ns, err := dialNATS(cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ns)
	}

	runID := sink.NewRunID()
	logger.WithField("run_id", runID).Debug("Output ready")
	return sink.Stamped(runID, sinks), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// statusPrinter reports session boundaries on stderr.
type statusPrinter struct {
	w       io.Writer
	address string

	dim   *color.Color
	ok    *color.Color
	warn  *color.Color
	fatal *color.Color
}

func newStatusPrinter(w io.Writer, address string, colored bool) *statusPrinter {
	p := &statusPrinter{
		w:       w,
		address: address,
		dim:     color.New(color.Faint),
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fatal:   color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.dim, p.ok, p.warn, p.fatal} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *statusPrinter) OnSessionStart(s *session.Session) {
	if s.TryCount() == 0 {
		return
	}
	p.dim.Fprintf(p.w, "Reconnecting to %s (attempt %d, backoff %s)\n", p.address, s.TryCount()+1, s.Backoff())
}

func (p *statusPrinter) OnSessionFinished(s *session.Session) {
	out := s.Outcome()
	switch out.Kind {
	case session.Completed:
		p.ok.Fprintf(p.w, "Stop condition met after %s\n", s.Duration().Round(time.Millisecond))
	case session.RetryableFailure:
		p.warn.Fprintf(p.w, "Session %d ended (%s): %v\n", s.TryCount()+1, out.Failure, out.Err)
	case session.Fatal:
		p.fatal.Fprintf(p.w, "Session %d failed: %v\n", s.TryCount()+1, out.Err)
	}
}

func (p *statusPrinter) summary(h *session.History) {
	stats := h.Stats()
	fmt.Fprintf(p.w, "%s: %s\n", p.address, stats)
	for _, rec := range h.Drain() {
		line := fmt.Sprintf("  #%d %-9s backoff=%s duration=%s", rec.TryCount+1, rec.Outcome, rec.Backoff, rec.Duration.Round(time.Millisecond))
		if rec.Failure != "" {
			line += " " + string(rec.Failure)
		}
		p.dim.Fprintln(p.w, line)
	}
}

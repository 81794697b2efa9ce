// Package detector runs the polling loop: it walks the configured date range
// in chunks, classifies each availability check, keeps the set of dates
// already reported and decides when to raise an alert.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/FranksOps/ranchwatch/internal/availability"
	"github.com/FranksOps/ranchwatch/internal/metrics"
	"github.com/FranksOps/ranchwatch/internal/notify"
	"github.com/FranksOps/ranchwatch/internal/storage"
	"github.com/FranksOps/ranchwatch/pkg/ratelimit"
)

// Checker queries one chunk. A non-nil error is only expected when ctx has
// ended; anything else is treated as an unexpected fault.
type Checker interface {
	Check(ctx context.Context, date time.Time) (availability.Result, error)
}

// Alerter fans an alert out to the operator.
type Alerter interface {
	NotifyAll(ctx context.Context, msg notify.Message) map[string]bool
}

// Sink records findings for later audit.
type Sink interface {
	Append(ctx context.Context, f *storage.Finding) error
}

// Defaults applied by New for zero Config fields.
const (
	DefaultInterval       = time.Hour
	DefaultChunkDays      = 30
	DefaultChunkDelay     = 2 * time.Second
	DefaultErrorThreshold = 3
	DefaultShortBodyLimit = 160
	DefaultFacility       = "Phantom Ranch"
)

// Config is the engine's fixed configuration.
type Config struct {
	Range  DateRange
	Nights int

	Interval       time.Duration
	ChunkDays      int
	ChunkDelay     time.Duration
	ErrorThreshold int
	ShortBodyLimit int
	// QuietErrors tracks error streaks without alerting on them.
	QuietErrors bool

	// Facility names the lodging in alert text.
	Facility string
	// FindingsHint, when set, tells the operator where findings are kept.
	FindingsHint string

	Logger *slog.Logger
	Now    func() time.Time
}

// Snapshot is a point-in-time view of the engine for status reporting.
type Snapshot struct {
	State         State     `json:"state"`
	Range         string    `json:"range"`
	Nights        int       `json:"nights"`
	Cycles        int       `json:"cycles"`
	Checks        int       `json:"checks"`
	KnownDates    []string  `json:"known_dates"`
	ErrorStreak   int       `json:"error_streak"`
	StreakAlerted bool      `json:"streak_alerted"`
	LastOutcome   string    `json:"last_outcome,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastCheckAt   time.Time `json:"last_check_at,omitzero"`
	LastFoundAt   time.Time `json:"last_found_at,omitzero"`
}

// Engine owns the detection state. Run, RunCycle and Handle must be called
// from a single goroutine; Snapshot and State are safe from any goroutine.
type Engine struct {
	cfg     Config
	checker Checker
	alerter Alerter
	sink    Sink
	logger  *slog.Logger
	limiter *ratelimit.Limiter

	known  KnownSet
	streak ErrorStreak

	cycles, checks int
	last           availability.Result
	lastCheckAt    time.Time
	lastFoundAt    time.Time

	state atomic.Int32
	snap  atomic.Pointer[Snapshot]
}

// New wires an engine. alerter and sink may be nil.
func New(cfg Config, checker Checker, alerter Alerter, sink Sink) (*Engine, error) {
	if checker == nil {
		return nil, errors.New("detector: checker is required")
	}
	if cfg.Range.Start.IsZero() || cfg.Range.Start.After(cfg.Range.End) {
		return nil, fmt.Errorf("detector: invalid date range %s", cfg.Range)
	}
	if cfg.Nights < 1 {
		return nil, fmt.Errorf("detector: nights must be at least 1, got %d", cfg.Nights)
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.ChunkDays == 0 {
		cfg.ChunkDays = DefaultChunkDays
	}
	if cfg.ChunkDelay == 0 {
		cfg.ChunkDelay = DefaultChunkDelay
	}
	if cfg.ErrorThreshold == 0 {
		cfg.ErrorThreshold = DefaultErrorThreshold
	}
	if cfg.ShortBodyLimit == 0 {
		cfg.ShortBodyLimit = DefaultShortBodyLimit
	}
	if cfg.Facility == "" {
		cfg.Facility = DefaultFacility
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// A negative delay disables pacing.
	delay := max(cfg.ChunkDelay, 0)

	e := &Engine{
		cfg:     cfg,
		checker: checker,
		alerter: alerter,
		sink:    sink,
		logger:  cfg.Logger,
		limiter: ratelimit.NewLimiter(delay, 0),
		known:   make(KnownSet),
	}
	e.publish()
	return e, nil
}

// State reports the lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Snapshot returns the last published view of the engine.
func (e *Engine) Snapshot() Snapshot {
	return *e.snap.Load()
}

// Known returns a copy of the known-available dates.
func (e *Engine) Known() []string {
	return e.known.Sorted()
}

// Streak returns the current error streak.
func (e *Engine) Streak() ErrorStreak {
	return e.streak
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.publish()
}

func (e *Engine) publish() {
	s := &Snapshot{
		State:         e.State(),
		Range:         e.cfg.Range.String(),
		Nights:        e.cfg.Nights,
		Cycles:        e.cycles,
		Checks:        e.checks,
		KnownDates:    e.known.Sorted(),
		ErrorStreak:   e.streak.Count,
		StreakAlerted: e.streak.Alerted,
		LastMessage:   e.last.Message,
		LastCheckAt:   e.lastCheckAt,
		LastFoundAt:   e.lastFoundAt,
	}
	if e.last.Outcome != 0 {
		s.LastOutcome = e.last.Outcome.String()
	}
	e.snap.Store(s)

	metrics.ErrorStreak.Set(float64(e.streak.Count))
	metrics.KnownDates.Set(float64(len(e.known)))
}

// Run polls until ctx ends. Cancellation stops the engine and returns nil.
// A checker fault returns an error wrapping ErrUnexpectedFault; a panic is
// logged and re-raised. Either leaves the engine Crashed.
func (e *Engine) Run(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("detector panicked", "panic", r, "stack", string(debug.Stack()))
			e.setState(Crashed)
			panic(r)
		}
	}()

	e.setState(Running)
	e.logger.Info("starting continuous checking",
		"range", e.cfg.Range.String(), "nights", e.cfg.Nights, "interval", e.cfg.Interval)

	for {
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return e.stop()
			}
			e.logger.Error("detector crashed", "error", err)
			e.setState(Crashed)
			return err
		}

		e.logger.Info("completed check cycle", "next_check_in", e.cfg.Interval)
		if err := ratelimit.Sleep(ctx, e.cfg.Interval); err != nil {
			return e.stop()
		}
	}
}

func (e *Engine) stop() error {
	e.logger.Info("stopping checker", "reason", "interrupted")
	e.setState(Stopped)
	return nil
}

// RunCycle performs one walk over the date range. It returns ctx's error if
// cancelled and an ErrUnexpectedFault error if the checker misbehaves.
func (e *Engine) RunCycle(ctx context.Context) error {
	foundBefore := len(e.known)
	hadError := false

	for _, date := range e.cfg.Range.Chunks(e.cfg.ChunkDays) {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		res, err := e.checker.Check(ctx, date)
		e.limiter.Done()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: check %s: %v", ErrUnexpectedFault, date.Format(availability.DateLayout), err)
		}

		if err := e.Handle(ctx, res); err != nil {
			return err
		}
		hadError = hadError || res.Outcome == availability.Error
	}

	e.cycles++
	e.publish()

	if len(e.known) == foundBefore && !hadError {
		e.logger.Info("no availability found in this check cycle")
	}
	return nil
}

// Handle applies one classified result to the engine state, recording and
// alerting as the result demands.
func (e *Engine) Handle(ctx context.Context, res availability.Result) error {
	e.checks++
	e.last = res
	e.lastCheckAt = e.cfg.Now()
	defer e.publish()

	switch res.Outcome {
	case availability.Success, availability.Empty:
		e.streak.Reset()
		if fresh := e.known.Diff(res.Dates); len(fresh) > 0 {
			e.report(ctx, fresh)
		}
		return nil

	case availability.Error:
		e.logger.Warn("check failed",
			"message", res.Message, "status", res.StatusCode, "detection", res.Detection,
			"consecutive_errors", e.streak.Count+1)
		if e.streak.Record(e.cfg.ErrorThreshold) && !e.cfg.QuietErrors {
			e.alertStreak(ctx, res)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown outcome %v", ErrUnexpectedFault, res.Outcome)
}

// report persists, announces and then remembers newly available dates.
func (e *Engine) report(ctx context.Context, dates []string) {
	foundAt := e.cfg.Now()
	e.lastFoundAt = foundAt

	e.logger.Info("availability found", "count", len(dates), "dates", strings.Join(dates, ", "))
	metrics.FindingsTotal.Add(float64(len(dates)))

	if e.sink != nil {
		for _, d := range dates {
			if err := e.sink.Append(ctx, storage.NewFinding(d, e.cfg.Nights, foundAt)); err != nil {
				metrics.PersistFailures.Inc()
				e.logger.Warn("failed to record finding", "date", d, "error", err)
			}
		}
	}

	e.dispatch(ctx, "availability", e.availabilityMessage(dates))
	e.known.Add(dates...)
}

func (e *Engine) alertStreak(ctx context.Context, last availability.Result) {
	e.dispatch(ctx, "errors", e.streakMessage(last))
}

func (e *Engine) dispatch(ctx context.Context, kind string, msg notify.Message) {
	metrics.AlertsTotal.WithLabelValues(kind).Inc()
	if e.alerter == nil {
		e.logger.Info("alert not sent, no channels configured", "kind", kind, "title", msg.Title)
		return
	}
	results := e.alerter.NotifyAll(ctx, msg)
	e.logger.Info("alert dispatched", "kind", kind, "title", msg.Title, "results", results)
}

// Announce tells the operator the checker is up. It is not part of Run so
// the caller decides whether to send it.
func (e *Engine) Announce(ctx context.Context) map[string]bool {
	if e.alerter == nil {
		return nil
	}
	return e.alerter.NotifyAll(ctx, e.startMessage())
}

func (e *Engine) availabilityMessage(dates []string) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d available dates for %d night stays:\n\n", len(dates), e.cfg.Nights)
	for i, d := range dates {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• " + d)
	}
	if e.cfg.FindingsHint != "" {
		fmt.Fprintf(&b, "\n\nCheck %s for details.", e.cfg.FindingsHint)
	}

	return notify.Message{
		Title: fmt.Sprintf("%s: %d Dates Available!", e.cfg.Facility, len(dates)),
		Body:  b.String(),
		ShortBody: notify.Truncate(
			fmt.Sprintf("%s: Found %d available dates including %s", e.cfg.Facility, len(dates), dates[0]),
			e.cfg.ShortBodyLimit),
	}
}

func (e *Engine) streakMessage(last availability.Result) notify.Message {
	reason := last.Message
	if reason == "" {
		reason = "Unknown error"
	}
	if last.Detection != "" {
		reason += " (" + last.Detection + " challenge)"
	}
	return notify.Message{
		Title: e.cfg.Facility + " Checker - Multiple Errors",
		Body: fmt.Sprintf("The checker has encountered %d consecutive errors. Last error: %s. "+
			"Please check the logs and verify your authentication.", e.streak.Count, reason),
		ShortBody: notify.Truncate(e.cfg.Facility+" Checker Error: Multiple failures. Please check the logs.",
			e.cfg.ShortBodyLimit),
	}
}

func (e *Engine) startMessage() notify.Message {
	start := e.cfg.Range.Start.Format(availability.DateLayout)
	end := e.cfg.Range.End.Format(availability.DateLayout)
	return notify.Message{
		Title: e.cfg.Facility + " Checker Started",
		Body: fmt.Sprintf("The %s availability checker has started. Checking for %d-night stays between %s and %s. Will check every %s.",
			e.cfg.Facility, e.cfg.Nights, start, end, e.cfg.Interval),
		ShortBody: notify.Truncate(
			fmt.Sprintf("%s Checker started. Checking for %d-night stays. Will notify if spots available.", e.cfg.Facility, e.cfg.Nights),
			e.cfg.ShortBodyLimit),
	}
}

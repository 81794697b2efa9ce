package detector

import (
	"errors"
	"fmt"
	"time"

	"github.com/FranksOps/ranchwatch/internal/availability"
)

// DateRange is the inclusive span of check-in dates to poll.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to calendar dates and rejects a start
// after the end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	s, e := calendarDate(start), calendarDate(end)
	if s.After(e) {
		return DateRange{}, fmt.Errorf("detector: start date %s is after end date %s",
			s.Format(availability.DateLayout), e.Format(availability.DateLayout))
	}
	return DateRange{Start: s, End: e}, nil
}

// Chunks returns the first date of every chunkDays-wide window covering r.
func (r DateRange) Chunks(chunkDays int) []time.Time {
	if chunkDays < 1 {
		chunkDays = 1
	}
	var out []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, chunkDays) {
		out = append(out, d)
	}
	return out
}

func (r DateRange) String() string {
	return r.Start.Format(availability.DateLayout) + " - " + r.End.Format(availability.DateLayout)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// KnownSet holds every date reported available since the process started.
// It only grows: a date that disappears and comes back is not new.
type KnownSet map[string]struct{}

// Has reports whether date has been seen.
func (k KnownSet) Has(date string) bool {
	_, ok := k[date]
	return ok
}

// Add merges dates into the set.
func (k KnownSet) Add(dates ...string) {
	for _, d := range dates {
		k[d] = struct{}{}
	}
}

// Diff returns the dates not yet in the set, in input order and without
// duplicates. The set is not modified.
func (k KnownSet) Diff(dates []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if k.Has(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Sorted returns the members in calendar order.
func (k KnownSet) Sorted() []string {
	out := make([]string, 0, len(k))
	for d := range k {
		out = append(out, d)
	}
	availability.SortDates(out)
	return out
}

// ErrorStreak tracks consecutive failed checks and whether the streak has
// already been reported.
type ErrorStreak struct {
	Count   int
	Alerted bool
}

// Record counts one failure and reports whether this failure is the one
// that should raise the streak alert.
func (s *ErrorStreak) Record(threshold int) bool {
	s.Count++
	if s.Count >= threshold && !s.Alerted {
		s.Alerted = true
		return true
	}
	return false
}

// Reset ends the streak.
func (s *ErrorStreak) Reset() {
	*s = ErrorStreak{}
}

// State is the engine lifecycle.
type State int32

const (
	Idle State = iota
	Running
	Stopped
	Crashed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Crashed:
		return "crashed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// MarshalText renders the state by name in JSON status output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrUnexpectedFault wraps anything the engine cannot classify. Run returns
// it and the process is expected to exit.
var ErrUnexpectedFault = errors.New("detector: unexpected fault")

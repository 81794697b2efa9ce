package availability

import (
	"fmt"
	"sort"
	"time"
)

// Outcome classifies one availability check.
type Outcome int

const (
	// Success means the API answered and flagged some (possibly zero) dates.
	Success Outcome = iota + 1
	// Empty means the API answered but reported a logical failure.
	Empty
	// Error covers transport failures, non-200 replies and unreadable bodies.
	Error
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Empty:
		return "empty"
	case Error:
		return "error"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is the classified reply for one chunk.
type Result struct {
	Outcome Outcome
	// Dates holds the available dates in chronological order (Success only).
	Dates []string
	// Message is the upstream msg for Empty, or the failure text for Error.
	Message string
	// StatusCode is 0 when no HTTP response was received.
	StatusCode int
	// Detection names the bot-protection vendor when an Error looked like a
	// challenge page.
	Detection string
}

// calendarResponse is the JSON the calendar endpoint returns.
type calendarResponse struct {
	Success any            `json:"success"`
	Results map[string]any `json:"results"`
	Msg     string         `json:"msg"`
}

// truthy follows JSON truthiness: true, non-zero numbers, non-empty strings,
// arrays and objects.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return false
}

func classify(body calendarResponse) Result {
	if !truthy(body.Success) {
		msg := body.Msg
		if msg == "" {
			msg = "Unknown error"
		}
		return Result{Outcome: Empty, Message: msg, StatusCode: 200}
	}

	dates := make([]string, 0, len(body.Results))
	for d, v := range body.Results {
		if truthy(v) {
			dates = append(dates, d)
		}
	}
	SortDates(dates)

	return Result{Outcome: Success, Dates: dates, StatusCode: 200}
}

// SortDates orders MM/DD/YYYY strings chronologically; anything unparseable
// sorts after, lexically.
func SortDates(dates []string) {
	sort.Slice(dates, func(i, j int) bool {
		a, errA := time.Parse(DateLayout, dates[i])
		b, errB := time.Parse(DateLayout, dates[j])
		switch {
		case errA == nil && errB == nil:
			return a.Before(b)
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return dates[i] < dates[j]
	})
}

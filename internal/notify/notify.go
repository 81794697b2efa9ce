// Package notify fans one alert out to every configured delivery channel.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/FranksOps/ranchwatch/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Message is one logical alert. ShortBody is used by length-constrained
// channels and may be empty, in which case they fall back to Body.
type Message struct {
	Title     string
	Body      string
	ShortBody string
}

// Channel delivers a Message through one medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher sends to all channels concurrently. A failing or slow channel
// never prevents the others from being attempted.
type Dispatcher struct {
	channels []Channel
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher over channels. Nil channels are ignored.
func NewDispatcher(logger *slog.Logger, channels ...Channel) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{logger: logger}
	for _, ch := range channels {
		if ch != nil {
			d.channels = append(d.channels, ch)
		}
	}
	return d
}

// Names lists the configured channels.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// NotifyAll attempts every channel and reports per-channel success.
func (d *Dispatcher) NotifyAll(ctx context.Context, msg Message) map[string]bool {
	var (
		mu      sync.Mutex
		results = make(map[string]bool, len(d.channels))
	)

	// Channel errors are recorded, not propagated, so the group never
	// cancels siblings.
	var g errgroup.Group
	for _, ch := range d.channels {
		ch := ch
		g.Go(func() error {
			err := ch.Send(ctx, msg)
			ok := err == nil
			if ok {
				d.logger.Info("notification sent", "channel", ch.Name(), "title", msg.Title)
			} else {
				d.logger.Error("notification failed", "channel", ch.Name(), "error", err)
			}
			metrics.RecordNotification(ch.Name(), ok)

			mu.Lock()
			results[ch.Name()] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Package textbackend keeps findings in the human-readable log the operator
// tails: one block per detection event, a timestamp header, one line per date.
//
//	=== AVAILABILITY FOUND AT 2025-05-20 09:30:00 ===
//	06/05/2025 - 2 night(s)
//
// The log does not carry finding IDs, so Query returns findings without one.
package textbackend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FranksOps/ranchwatch/internal/storage"
)

// DefaultPath is the findings log written next to the working directory.
const DefaultPath = "phantom_ranch_available_dates.txt"

const (
	stampLayout  = "2006-01-02 15:04:05"
	headerPrefix = "=== AVAILABILITY FOUND AT "
	headerSuffix = " ==="
	nightsSuffix = " night(s)"
)

// ensure textBackend implements storage.Backend
var _ storage.Backend = (*textBackend)(nil)

type textBackend struct {
	mu   sync.Mutex
	file *os.File
	loc  *time.Location
	last string // header of the block currently open at the end of the file
}

// New opens (or creates) the findings log at filePath. Timestamps are written
// in local time, matching what the operator sees on the console.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("textbackend: open: %w", err)
	}

	b := &textBackend{file: f, loc: time.Local}
	if _, err := b.readAll(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

func (b *textBackend) header(t time.Time) string {
	return headerPrefix + t.In(b.loc).Format(stampLayout) + headerSuffix
}

func (b *textBackend) Append(ctx context.Context, f *storage.Finding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	h := b.header(f.FoundAt)
	if h != b.last {
		sb.WriteString("\n" + h + "\n")
	}
	fmt.Fprintf(&sb, "%s - %d%s\n", f.Date, f.Nights, nightsSuffix)

	if _, err := b.file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("textbackend: write: %w", err)
	}
	b.last = h
	return nil
}

func (b *textBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Finding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.readAll()
	if err != nil {
		return nil, err
	}
	return storage.Apply(all, filter), nil
}

// readAll parses the whole log and records the last header seen so that
// appends for the same event continue its block. Callers hold mu or own b.
func (b *textBackend) readAll() ([]*storage.Finding, error) {
	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("textbackend: seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	var (
		all     []*storage.Finding
		foundAt time.Time
		header  string
	)
	scanner := bufio.NewScanner(b.file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if stamp, ok := cutHeader(line); ok {
			t, err := time.ParseInLocation(stampLayout, stamp, b.loc)
			if err != nil {
				return nil, fmt.Errorf("textbackend: bad header %q: %w", line, err)
			}
			foundAt, header = t, line
			continue
		}

		date, nights, ok := cutEntry(line)
		if !ok || header == "" {
			continue // not ours
		}
		all = append(all, &storage.Finding{Date: date, Nights: nights, FoundAt: foundAt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("textbackend: read: %w", err)
	}

	b.last = header
	return all, nil
}

func cutHeader(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, headerPrefix)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, headerSuffix)
}

func cutEntry(line string) (string, int, bool) {
	date, rest, ok := strings.Cut(line, " - ")
	if !ok {
		return "", 0, false
	}
	rest, ok = strings.CutSuffix(rest, nightsSuffix)
	if !ok {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, false
	}
	return date, n, true
}

func (b *textBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

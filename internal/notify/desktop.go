package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrDesktopUnsupported is returned on platforms without a known notifier.
var ErrDesktopUnsupported = errors.New("notify: desktop notifications unsupported on this platform")

type runFunc func(ctx context.Context, name string, args ...string) error

func execRun(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Desktop shows a toast through notify-send (Linux) or osascript (macOS).
type Desktop struct {
	goos string
	run  runFunc
}

// NewDesktop checks that the platform notifier is installed.
func NewDesktop() (*Desktop, error) {
	d := &Desktop{goos: runtime.GOOS, run: execRun}
	bin, err := d.binary()
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("notify: %s not found: %w", bin, err)
	}
	return d, nil
}

func (d *Desktop) binary() (string, error) {
	switch d.goos {
	case "linux":
		return "notify-send", nil
	case "darwin":
		return "osascript", nil
	}
	return "", ErrDesktopUnsupported
}

func (d *Desktop) Name() string { return "desktop" }

func (d *Desktop) Send(ctx context.Context, msg Message) error {
	bin, err := d.binary()
	if err != nil {
		return err
	}
	if d.goos == "darwin" {
		script := fmt.Sprintf("display notification %s with title %s", appleQuote(msg.Body), appleQuote(msg.Title))
		return d.run(ctx, bin, "-e", script)
	}
	return d.run(ctx, bin, msg.Title, msg.Body)
}

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

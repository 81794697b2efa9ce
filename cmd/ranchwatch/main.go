// Command ranchwatch watches the Phantom Ranch lottery calendar and alerts
// when new dates open up.
//
// Usage:
//
//	ranchwatch watch --cookies-file phantom_ranch_cookies.txt --email-notify ...
//	ranchwatch cookies extract --curl-file curl.txt --save
//	ranchwatch findings report --format html > findings.html
//	ranchwatch session --cookies-file phantom_ranch_cookies.txt
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/FranksOps/ranchwatch/internal/config"
)

func main() {
	// Load .env files if present
	_ = godotenv.Load(".env")
	_ = godotenv.Load("phantom-ranch.env")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	var cerr *config.Error
	if errors.As(err, &cerr) {
		fmt.Fprintf(w, "Configuration error: %v\n", cerr)
		if cerr.Hint != "" {
			fmt.Fprintf(w, "  %s\n", cerr.Hint)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/FranksOps/ranchwatch/internal/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// DefaultLogFile is used when --log-file is given without a value.
const DefaultLogFile = "phantom_ranch_checker.log"

type app struct {
	v       *viper.Viper
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
	logFile *os.File
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		logger: slog.Default(),
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ranchwatch",
		Short:         "Phantom Ranch lottery availability watcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("log-file", "", "also write logs to this file")
	pf.Lookup("log-file").NoOptDefVal = DefaultLogFile

	root.AddCommand(a.watchCmd())
	root.AddCommand(a.cookiesCmd())
	root.AddCommand(a.findingsCmd())
	root.AddCommand(a.sessionCmd())
	root.AddCommand(a.notifyCmd())
	root.AddCommand(a.versionCmd())
	return root
}

// setup binds the running command's flags into viper and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := bindFlags(a.v, cmd.Flags(), nil); err != nil {
		return err
	}

	lc, err := config.LoadLog(a.v)
	if err != nil {
		return err
	}

	var w io.Writer = a.stderr
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		w = io.MultiWriter(a.stderr, f)
	}

	opts := &slog.HandlerOptions{Level: lc.Level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if lc.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	a.logger = slog.New(h)
	slog.SetDefault(a.logger)
	return nil
}

// bindFlags exposes every flag in fs to viper under its own name, or under
// rename[name] when the flag's key differs from its spelling.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, rename map[string]string) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if k, ok := rename[f.Name]; ok {
			key = k
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ranchwatch %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}

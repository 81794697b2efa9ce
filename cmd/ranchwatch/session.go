package main

import (
	"github.com/spf13/cobra"

	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/credential"
	"github.com/FranksOps/ranchwatch/internal/session"
)

func (a *app) sessionCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Keep the lottery session alive by browsing with the stored cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(a.v, cmd.Flags(), map[string]string{"interval": "session-interval", "page": "session-pages"}); err != nil {
				return err
			}
			sc, err := config.LoadSession(a.v)
			if err != nil {
				return err
			}
			cookies, err := credential.ReadFile(sc.CookiesFile)
			if err != nil {
				return &config.Error{Key: "cookies-file", Problem: err.Error()}
			}

			r, err := session.New(session.Config{
				Pages:       sc.Pages,
				Cookies:     credential.Parse(cookies),
				CookiesFile: sc.CookiesFile,
				Interval:    sc.Interval,
				Timeout:     sc.Timeout,
				Fingerprint: sc.Fingerprint,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}

			if once {
				return r.RefreshOnce(cmd.Context())
			}
			return r.Run(cmd.Context())
		},
	}

	fs := cmd.Flags()
	fs.String("cookies-file", credential.DefaultFile, "cookie file to read and rewrite")
	fs.String("interval", def[string]("session-interval"), "time between refreshes (seconds or duration)")
	fs.StringSlice("page", nil, "page to visit (repeatable, default the lottery pages)")
	fs.BoolVar(&once, "once", false, "refresh once and exit")
	addTransportFlags(fs)
	return cmd
}

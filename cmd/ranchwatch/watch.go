package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/ranchwatch/internal/availability"
	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/credential"
	"github.com/FranksOps/ranchwatch/internal/detector"
	"github.com/FranksOps/ranchwatch/internal/metrics"
	"github.com/FranksOps/ranchwatch/internal/notify"
	"github.com/FranksOps/ranchwatch/pkg/proxy"
	"github.com/FranksOps/ranchwatch/pkg/useragent"
)

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the availability calendar and alert on newly open dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, time.Now())
			if err != nil {
				return err
			}
			return a.watch(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.String("start-date", "", "first check-in date, MM/DD/YYYY (default today)")
	fs.String("end-date", "", "last check-in date, MM/DD/YYYY (default one year from today)")
	fs.Int("nights", def[int]("nights"), "number of nights to stay")
	fs.Int("people", def[int]("people"), "number of people per room")
	fs.String("interval", def[string]("interval"), "time between check cycles (seconds or duration)")
	fs.String("chunk-delay", def[string]("chunk-delay"), "pause between calendar requests, 0 disables")
	fs.String("endpoint", availability.DefaultEndpoint, "calendar API endpoint")
	fs.String("proxy-file", "", "file with one proxy URL per line to rotate through")
	fs.StringSlice("user-agent", nil, "rotate these User-Agent strings (repeatable)")
	fs.Bool("rotate-user-agents", false, "rotate through built-in Chrome User-Agent strings")
	fs.Bool("error-notify", true, "alert after repeated consecutive errors")
	fs.Bool("announce", true, "send a notification when the checker starts")
	fs.String("metrics-addr", "", "serve /metrics, /healthz and /status on this address")
	addCredentialFlags(fs)
	addTransportFlags(fs)
	addNotifyFlags(fs)
	addStorageFlags(fs)
	return cmd
}

func (a *app) watch(ctx context.Context, cfg *config.Config) error {
	logger := a.logger

	cookies, from, err := credential.Resolve(cfg.Credentials)
	if err != nil {
		return &config.Error{Key: from, Problem: err.Error(), Hint: "check the cookie source you passed"}
	}
	if cfg.SaveCookies && cookies != "" {
		if err := credential.WriteFile(cfg.CookiesOut, cookies); err != nil {
			return err
		}
		logger.Info("cookies saved", "file", cfg.CookiesOut)
	}
	if cookies == "" {
		a.warnNoCookies()
	} else {
		logger.Info("using cookies", "source", from, "count", len(credential.Parse(cookies)))
	}

	var pool *proxy.Pool
	if cfg.ProxyFile != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(cfg.ProxyFile); err != nil {
			return &config.Error{Key: "proxy-file", Problem: err.Error()}
		}
		logger.Info("proxy rotation enabled", "proxies", pool.Len())
	}

	var agents *useragent.Pool
	switch {
	case len(cfg.UserAgents) > 0:
		agents = useragent.NewPool(cfg.UserAgents)
	case a.v.GetBool("rotate-user-agents"):
		agents = useragent.NewPool(useragent.DefaultPool)
	}

	client, err := availability.NewClient(availability.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		Stay:        availability.StayQuery{Nights: cfg.Nights, PeoplePerRoom: cfg.People},
		Cookies:     credential.Parse(cookies),
		Fingerprint: cfg.Fingerprint,
		ProxyPool:   pool,
		UAPool:      agents,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	var alerter detector.Alerter
	if channels := a.channels(cfg.Notify); len(channels) > 0 {
		d := notify.NewDispatcher(logger, channels...)
		logger.Info("notification channels configured", "channels", d.Names())
		alerter = d
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer backend.Close()

	r, err := detector.NewDateRange(cfg.Start, cfg.End)
	if err != nil {
		return &config.Error{Problem: err.Error()}
	}

	delay := cfg.ChunkDelay
	if delay == 0 {
		delay = -1
	}
	engine, err := detector.New(detector.Config{
		Range:        r,
		Nights:       cfg.Nights,
		Interval:     cfg.Interval,
		ChunkDelay:   delay,
		QuietErrors:  !cfg.Notify.Errors,
		FindingsHint: findingsHint(cfg.Storage),
		Logger:       logger,
	}, client, alerter, backend)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Start(cfg.MetricsAddr, metrics.Handler(func() any { return engine.Snapshot() }), logger)
		if err != nil {
			return err
		}
		defer srv.Stop(context.Background())
	}

	if cfg.Notify.Announce && alerter != nil {
		engine.Announce(ctx)
	}

	return engine.Run(ctx)
}

// channels builds the enabled delivery channels. A channel that cannot be
// set up is logged and skipped so the others still work.
func (a *app) channels(n config.Notify) []notify.Channel {
	var out []notify.Channel

	if n.Desktop {
		d, err := notify.NewDesktop()
		if err != nil {
			a.logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			out = append(out, d)
		}
	}

	var sender *notify.SMTPSender
	if n.Email || n.SMS {
		sender = notify.NewSMTPSender(n.SMTP)
	}
	if n.Email {
		out = append(out, notify.NewEmail(sender, n.EmailTo))
	}
	if n.SMS {
		sms, err := notify.NewSMS(sender, n.Phone, n.Carrier, detector.DefaultFacility+" Alert")
		if err != nil {
			a.logger.Warn("SMS notifications unavailable", "error", err)
		} else {
			out = append(out, sms)
		}
	}
	return out
}

func findingsHint(s config.Storage) string {
	switch s.Backend {
	case config.StoragePostgres, config.StorageRedis:
		return "`ranchwatch findings list`"
	}
	return s.DSN
}

func (a *app) warnNoCookies() {
	a.logger.Warn("no cookies provided, authentication may fail")
	fmt.Fprint(a.stderr, `WARNING: No cookies provided. Authentication may fail.
It's recommended to provide cookies from a successful browser session.
Options for providing cookies:
  1. --cookies 'cookie_string'
  2. --cookies-file path/to/cookies.txt
  3. --curl-command 'curl command...'
  4. --curl-file path/to/curl.txt

`)
}

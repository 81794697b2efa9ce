package config

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/FranksOps/ranchwatch/internal/fingerprint"
)

var now = time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)

func withValues(values map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.Start.Equal(time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected start today, got %v", cfg.Start)
	}
	if !cfg.End.Equal(cfg.Start.AddDate(0, 0, 365)) {
		t.Errorf("expected end one year out, got %v", cfg.End)
	}
	if cfg.Nights != 2 || cfg.People != 4 {
		t.Errorf("unexpected stay %d nights, %d people", cfg.Nights, cfg.People)
	}
	if cfg.Interval != time.Hour || cfg.ChunkDelay != 2*time.Second || cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected timings %v %v %v", cfg.Interval, cfg.ChunkDelay, cfg.Timeout)
	}
	if cfg.Fingerprint != fingerprint.ProfileChrome {
		t.Errorf("unexpected fingerprint %q", cfg.Fingerprint)
	}
	if cfg.Storage.Backend != StorageText || cfg.Storage.DSN != "phantom_ranch_available_dates.txt" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if !cfg.Notify.Errors || !cfg.Notify.Announce || cfg.Notify.Enabled() {
		t.Errorf("unexpected notify defaults %+v", cfg.Notify)
	}
	if cfg.Notify.SMTP.Host != "smtp.gmail.com" || cfg.Notify.SMTP.Port != 587 {
		t.Errorf("unexpected smtp defaults %+v", cfg.Notify.SMTP)
	}
}

func TestLoad_ExplicitValues(t *testing.T) {
	v := withValues(map[string]any{
		"start-date":   "06/01/2025",
		"end-date":     "07/01/2025",
		"nights":       3,
		"interval":     "900",
		"chunk-delay":  "500ms",
		"cookies":      "a=1",
		"storage":      "SQLite",
		"storage-dsn":  "/tmp/x.db",
		"fingerprint":  "firefox",
		"metrics-addr": ":9090",
	})

	cfg, err := Load(v, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Start.Format("01/02/2006") != "06/01/2025" || cfg.End.Format("01/02/2006") != "07/01/2025" {
		t.Errorf("unexpected range %v - %v", cfg.Start, cfg.End)
	}
	if cfg.Interval != 15*time.Minute {
		t.Errorf("bare numbers are seconds, got %v", cfg.Interval)
	}
	if cfg.ChunkDelay != 500*time.Millisecond {
		t.Errorf("unexpected chunk delay %v", cfg.ChunkDelay)
	}
	if cfg.Credentials.Cookies != "a=1" {
		t.Errorf("unexpected credentials %+v", cfg.Credentials)
	}
	if cfg.Storage.Backend != StorageSQLite || cfg.Storage.DSN != "/tmp/x.db" {
		t.Errorf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Fingerprint != fingerprint.ProfileFirefox || cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected transport settings %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		key    string
	}{
		{"reversed range", map[string]any{"start-date": "07/01/2025", "end-date": "06/01/2025"}, ""},
		{"bad start", map[string]any{"start-date": "2025-06-01"}, "start-date"},
		{"bad end", map[string]any{"end-date": "13/45/2025"}, "end-date"},
		{"zero nights", map[string]any{"nights": 0}, "nights"},
		{"zero people", map[string]any{"people": 0}, "people"},
		{"bad interval", map[string]any{"interval": "often"}, "interval"},
		{"zero interval", map[string]any{"interval": "0"}, "interval"},
		{"negative delay", map[string]any{"chunk-delay": "-1s"}, "chunk-delay"},
		{"bad fingerprint", map[string]any{"fingerprint": "netscape"}, "fingerprint"},
		{"bad storage", map[string]any{"storage": "mongo"}, "storage"},
		{"postgres without dsn", map[string]any{"storage": "postgres"}, "storage-dsn"},
		{"email missing to", map[string]any{
			"email-notify": true, "email-from": "a@x", "email-user": "a@x", "email-password": "p",
		}, "email-to"},
		{"email missing password", map[string]any{
			"email-notify": true, "email-from": "a@x", "email-to": "b@x", "email-user": "a@x",
		}, "email-password"},
		{"sms missing phone", map[string]any{
			"sms-notify": true, "carrier": "att", "email-from": "a@x", "email-user": "a@x", "email-password": "p",
		}, "phone-number"},
		{"sms unknown carrier", map[string]any{
			"sms-notify": true, "phone-number": "5551234567", "carrier": "pigeon",
			"email-from": "a@x", "email-user": "a@x", "email-password": "p",
		}, "carrier"},
		{"sms missing smtp user", map[string]any{
			"sms-notify": true, "phone-number": "5551234567", "carrier": "att",
			"email-from": "a@x", "email-password": "p",
		}, "email-user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(withValues(tt.values), now)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cerr.Key != tt.key {
				t.Errorf("expected key %q, got %q (%v)", tt.key, cerr.Key, cerr)
			}
		})
	}
}

func TestLoad_Notify(t *testing.T) {
	v := withValues(map[string]any{
		"email-notify":   true,
		"sms-notify":     true,
		"desktop-notify": true,
		"error-notify":   false,
		"email-from":     "bot@example.com",
		"email-to":       "me@example.com",
		"email-user":     "bot@example.com",
		"email-password": "hunter2",
		"phone-number":   "5551234567",
		"carrier":        "Verizon",
	})

	cfg, err := Load(v, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n := cfg.Notify
	if !n.Enabled() || !n.Email || !n.SMS || !n.Desktop || n.Errors {
		t.Errorf("unexpected switches %+v", n)
	}
	if n.Carrier != "verizon" {
		t.Errorf("carrier should be normalised, got %q", n.Carrier)
	}
	if n.SMTP.Password != "hunter2" || n.SMTP.From != "bot@example.com" {
		t.Errorf("unexpected smtp %+v", n.SMTP)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("EMAIL_PASSWORD", "from-legacy-env")
	t.Setenv("RANCHWATCH_NIGHTS", "4")
	t.Setenv("RANCHWATCH_STORAGE", "jsonl")

	cfg, err := Load(viper.New(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Notify.SMTP.Password != "from-legacy-env" {
		t.Errorf("expected EMAIL_PASSWORD to supply the password, got %q", cfg.Notify.SMTP.Password)
	}
	if cfg.Nights != 4 {
		t.Errorf("expected RANCHWATCH_NIGHTS override, got %d", cfg.Nights)
	}
	if cfg.Storage.DSN != "phantom_ranch_findings.jsonl" {
		t.Errorf("unexpected jsonl default path %q", cfg.Storage.DSN)
	}

	v := withValues(map[string]any{"email-password": "flag-wins"})
	cfg, err = Load(v, now)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Notify.SMTP.Password != "flag-wins" {
		t.Errorf("explicit value must override the environment, got %q", cfg.Notify.SMTP.Password)
	}
}

func TestLoadLog(t *testing.T) {
	l, err := LoadLog(withValues(map[string]any{"log-level": "DEBUG", "log-format": "json", "log-file": "x.log"}))
	if err != nil {
		t.Fatal(err)
	}
	if l.Level != slog.LevelDebug || l.Format != "json" || l.File != "x.log" {
		t.Errorf("unexpected log config %+v", l)
	}

	if _, err := LoadLog(withValues(map[string]any{"log-level": "loud"})); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := LoadLog(withValues(map[string]any{"log-format": "xml"})); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoadSession(t *testing.T) {
	if _, err := LoadSession(viper.New()); err == nil {
		t.Fatal("expected error without cookies file")
	}

	s, err := LoadSession(withValues(map[string]any{"cookies-file": "c.txt", "session-interval": "600"}))
	if err != nil {
		t.Fatal(err)
	}
	if s.CookiesFile != "c.txt" || s.Interval != 10*time.Minute || s.Fingerprint != fingerprint.ProfileChrome {
		t.Errorf("unexpected session config %+v", s)
	}
}

func TestError_Message(t *testing.T) {
	err := invalid("nights", "must be at least 1", "")
	if err.Error() != "config: --nights: must be at least 1" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !strings.HasPrefix((&Error{Problem: "x"}).Error(), "config: x") {
		t.Errorf("unexpected keyless message")
	}
}

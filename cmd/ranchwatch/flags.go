package main

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/FranksOps/ranchwatch/internal/config"
	"github.com/FranksOps/ranchwatch/internal/credential"
	"github.com/FranksOps/ranchwatch/internal/notify"
)

func def[T any](key string) T {
	v, _ := config.Defaults[key].(T)
	return v
}

func addCredentialFlags(fs *pflag.FlagSet) {
	fs.String("cookies", "", "cookie string from a browser session")
	fs.String("cookies-file", "", "file containing a cookie string")
	fs.String("curl-command", "", "full curl command to extract cookies from")
	fs.String("curl-file", "", "file containing a curl command to extract cookies from")
	fs.Bool("save-cookies", false, "save the resolved cookies for future runs")
	fs.String("cookies-out", credential.DefaultFile, "where --save-cookies writes")
}

func addTransportFlags(fs *pflag.FlagSet) {
	fs.String("fingerprint", def[string]("fingerprint"), "TLS fingerprint: chrome, firefox, safari, random or go")
	fs.String("timeout", def[string]("timeout"), "request timeout (seconds or duration)")
}

func addNotifyFlags(fs *pflag.FlagSet) {
	fs.Bool("desktop-notify", false, "enable desktop notifications")
	fs.Bool("email-notify", false, "enable email notifications")
	fs.String("email-from", "", "from address for notifications")
	fs.String("email-to", "", "recipient for email notifications")
	fs.String("email-server", def[string]("email-server"), "SMTP server")
	fs.Int("email-port", def[int]("email-port"), "SMTP port")
	fs.String("email-user", "", "SMTP username")
	fs.String("email-password", "", "SMTP password (default $EMAIL_PASSWORD)")
	fs.Bool("sms-notify", false, "enable SMS notifications via an email-to-SMS gateway")
	fs.String("phone-number", "", "phone number for SMS notifications (digits only)")
	fs.String("carrier", "", "cell carrier for the SMS gateway ("+strings.Join(notify.CarrierNames(), ", ")+")")
}

func addStorageFlags(fs *pflag.FlagSet) {
	fs.String("storage", config.StorageText, "findings backend ("+strings.Join(config.StorageNames(), ", ")+")")
	fs.String("storage-dsn", "", "findings file path or database DSN (default depends on --storage)")
}

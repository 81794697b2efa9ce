package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SMSLimit is the longest body a carrier gateway reliably delivers.
const SMSLimit = 160

// Carriers maps a carrier name to its email-to-SMS gateway domain.
var Carriers = map[string]string{
	"verizon": "vtext.com",
	"att":     "txt.att.net",
	"tmobile": "tmomail.net",
	"sprint":  "messaging.sprintpcs.com",
	"cricket": "sms.cricketwireless.net",
}

// CarrierNames lists supported carriers for help text and validation.
func CarrierNames() []string {
	names := make([]string, 0, len(Carriers))
	for name := range Carriers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SMS texts the short alert through a carrier's email gateway.
type SMS struct {
	mailer  Mailer
	address string
	subject string
}

// NewSMS addresses phone@gateway for carrier. Subject is the mail subject
// most gateways prepend to the text.
func NewSMS(mailer Mailer, phone, carrier, subject string) (*SMS, error) {
	gateway, ok := Carriers[strings.ToLower(carrier)]
	if !ok {
		return nil, fmt.Errorf("notify: unknown carrier %q (supported: %s)", carrier, strings.Join(CarrierNames(), ", "))
	}
	if phone == "" {
		return nil, fmt.Errorf("notify: phone number is required for SMS")
	}
	return &SMS{mailer: mailer, address: phone + "@" + gateway, subject: subject}, nil
}

// Address is the gateway address texts are mailed to.
func (s *SMS) Address() string { return s.address }

func (s *SMS) Name() string { return "sms" }

func (s *SMS) Send(ctx context.Context, msg Message) error {
	body := msg.ShortBody
	if body == "" {
		body = msg.Body
	}
	return s.mailer.SendMail(ctx, s.address, s.subject, Truncate(body, SMSLimit))
}

package fingerprint

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile names a TLS ClientHello shape to present to the upstream.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // standard go TLS
	ProfileRandom  Profile = "random" // randomized uTLS profile
)

var helloIDs = map[Profile]utls.ClientHelloID{
	ProfileChrome:  utls.HelloChrome_Auto,
	ProfileFirefox: utls.HelloFirefox_Auto,
	ProfileSafari:  utls.HelloIOS_Auto,
	ProfileRandom:  utls.HelloRandomizedNoALPN,
}

// The transport speaks HTTP/1.1 over the uTLS conn, so the hello must not
// let the server pick h2.
var alpnProtocols = []string{"http/1.1"}

// helloSpec builds a fresh spec for id with ALPN limited to HTTP/1.1. Specs
// hold per-connection state and cannot be shared between dials.
func helloSpec(id utls.ClientHelloID) (*utls.ClientHelloSpec, error) {
	spec, err := utls.UTLSIdToSpec(id)
	if err != nil {
		return nil, err
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = alpnProtocols
		}
	}
	return &spec, nil
}

// ParseProfile maps a flag value to a Profile. Empty selects Chrome, which
// matches the header profile sent with availability checks.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProfileChrome, nil
	}
	if p == ProfileGo {
		return p, nil
	}
	if _, ok := helloIDs[p]; !ok {
		return "", fmt.Errorf("fingerprint: unknown profile %q", s)
	}
	return p, nil
}

// Options tune the transport beyond the hello shape.
type Options struct {
	// Proxy selects an outbound proxy per request; nil means direct.
	Proxy func(*http.Request) (*url.URL, error)
	// RootCAs overrides the system roots, mainly for tests.
	RootCAs *x509.CertPool
}

// Transport returns a RoundTripper whose TLS handshakes look like profile p.
// ProfileGo returns a plain clone of http.DefaultTransport.
func Transport(p Profile, opts Options) (http.RoundTripper, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = opts.Proxy

	if p == ProfileGo {
		if opts.RootCAs != nil {
			base.TLSClientConfig = &tls.Config{RootCAs: opts.RootCAs}
		}
		return base, nil
	}

	hello, ok := helloIDs[p]
	if !ok {
		return nil, fmt.Errorf("fingerprint: unknown profile %q", p)
	}

	dial := base.DialContext
	base.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		cfg := &utls.Config{ServerName: host, RootCAs: opts.RootCAs}
		var conn *utls.UConn
		if p == ProfileRandom {
			conn = utls.UClient(raw, cfg, hello)
		} else {
			spec, err := helloSpec(hello)
			if err != nil {
				_ = raw.Close()
				return nil, fmt.Errorf("fingerprint: %s hello: %w", p, err)
			}
			conn = utls.UClient(raw, cfg, utls.HelloCustom)
			if err := conn.ApplyPreset(spec); err != nil {
				_ = raw.Close()
				return nil, fmt.Errorf("fingerprint: %s hello: %w", p, err)
			}
		}
		if err := conn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("fingerprint: %s handshake with %s: %w", p, host, err)
		}
		return conn, nil
	}

	return base, nil
}

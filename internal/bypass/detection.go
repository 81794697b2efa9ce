package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the slice of an HTTP reply the detectors look at.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether a response was produced by a bot protection
// layer rather than the origin, and names the vendor when it was.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectImperva,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs res through detectors and returns the first vendor that matched.
func Analyze(res *Response, detectors []Detector) (string, bool) {
	if res == nil {
		return "", false
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return source, true
		}
	}
	return "", false
}

// Detect is Analyze with DefaultDetectors.
func Detect(status int, header http.Header, body []byte) (string, bool) {
	return Analyze(&Response{StatusCode: status, Header: header, Body: body}, DefaultDetectors())
}

var captchaMarkers = [][]byte{
	[]byte("g-recaptcha"),
	[]byte("h-captcha"),
	[]byte("cf-turnstile"),
	[]byte("px-captcha"),
	[]byte("captcha-delivery.com"),
}

// HasCaptcha reports whether body carries an interactive challenge widget.
// The session refresher treats such pages as a failed round.
func HasCaptcha(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, m := range captchaMarkers {
		if bytes.Contains(lower, m) {
			return true
		}
	}
	return bytes.Contains(lower, []byte("captcha"))
}

func blocked(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func server(h http.Header) string {
	return strings.ToLower(h.Get("Server"))
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(res *Response) (bool, string) {
	if !blocked(res.StatusCode) {
		return false, ""
	}
	if strings.Contains(server(res.Header), "cloudflare") || res.Header.Get("Cf-Mitigated") != "" {
		return true, "Cloudflare"
	}
	if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(res.Body, []byte("cf-turnstile")) ||
		bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(res *Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(server(res.Header), "akamai") {
		return true, "Akamai"
	}
	// generic "Reference #" block page
	if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

// detectImperva looks for Imperva (Incapsula) signatures.
func detectImperva(res *Response) (bool, string) {
	if !blocked(res.StatusCode) {
		return false, ""
	}
	if res.Header.Get("X-Iinfo") != "" || strings.Contains(strings.ToLower(res.Header.Get("X-Cdn")), "incapsula") {
		return true, "Imperva"
	}
	if bytes.Contains(res.Body, []byte("_Incapsula_Resource")) || bytes.Contains(res.Body, []byte("Incapsula incident ID")) {
		return true, "Imperva"
	}
	return false, ""
}

// detectDataDome looks for DataDome challenge/block signatures.
func detectDataDome(res *Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(server(res.Header), "datadome") ||
		res.Header.Get("X-DataDome") != "" || res.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) {
		return true, "DataDome"
	}
	return false, ""
}

// detectPerimeterX looks for PerimeterX (HUMAN) signatures.
func detectPerimeterX(res *Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if res.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bytes.Contains(res.Body, []byte("client.perimeterx.net")) ||
		bytes.Contains(res.Body, []byte("px-captcha")) ||
		bytes.Contains(res.Body, []byte("_pxBlock")) {
		return true, "PerimeterX"
	}
	return false, ""
}

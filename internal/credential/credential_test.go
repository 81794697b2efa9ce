package credential

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"basic", "a=1; b=2;c=3", map[string]string{"a": "1", "b": "2", "c": "3"}},
		{"segment without equals skipped", "a=1; junk; b=2", map[string]string{"a": "1", "b": "2"}},
		{"value keeps later equals", "tok=abc==; x=", map[string]string{"tok": "abc==", "x": ""}},
		{"stray separators", ";; a=1 ;", map[string]string{"a": "1"}},
		{"empty name skipped", "=orphan; a=1", map[string]string{"a": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if got == nil {
				t.Fatal("Parse returned nil map")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	got := Format(map[string]string{"b": "2", "a": "1", "c": "x=y"})
	if got != "a=1; b=2; c=x=y" {
		t.Errorf("unexpected format: %q", got)
	}
	if Format(nil) != "" {
		t.Errorf("expected empty string for nil map")
	}

	// Format output parses back to the same map.
	in := map[string]string{"session": "abc", "csrf": "123"}
	if !reflect.DeepEqual(Parse(Format(in)), in) {
		t.Errorf("Format/Parse mismatch")
	}
}

func TestExtractFromCurl(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"single quoted", `curl 'https://example.com' -b 'x=1; y=2' -H "foo"`, "x=1; y=2", true},
		{"double quoted", `curl "https://example.com" -b "x=1; y=2" -H 'foo'`, "x=1; y=2", true},
		{"unquoted to next flag", `curl https://example.com -b x=1;y=2 -H foo`, "x=1;y=2", true},
		{"unquoted to end", `curl https://example.com -b x=1;y=2`, "x=1;y=2", true},
		{"long flag", `curl https://example.com --cookie 'sid=abc' --compressed`, "sid=abc", true},
		{"multi-line", "curl 'https://example.com' \\\n  -H 'accept: */*' \\\n  -b 'sid=abc; t=1' \\\n  --data-raw 'x'", "sid=abc; t=1", true},
		{"crlf continuation", "curl 'https://example.com' \\\r\n  -b 'sid=abc'", "sid=abc", true},
		{"no flag", `curl 'https://example.com' -H 'accept: */*'`, "", false},
		{"empty input", "", "", false},
		{"empty argument", `curl https://example.com -b ''`, "", false},
		{"unterminated quote", `curl https://example.com -b 'sid=abc -H foo`, "'sid=abc", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFromCurl(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ExtractFromCurl() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)

	if err := WriteFile(path, "sid=abc; t=1"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	// trailing newlines from hand-edited files are trimmed
	if err := os.WriteFile(path, []byte("sid=abc; t=1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "sid=abc; t=1" {
		t.Errorf("unexpected cookies %q", got)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	cookieFile := filepath.Join(dir, "cookies.txt")
	curlFile := filepath.Join(dir, "curl.txt")
	badCurlFile := filepath.Join(dir, "bad.txt")
	os.WriteFile(cookieFile, []byte("from=file\n"), 0600)
	os.WriteFile(curlFile, []byte("curl 'https://example.com' \\\n -b 'from=curlfile'"), 0600)
	os.WriteFile(badCurlFile, []byte("curl 'https://example.com'"), 0600)

	tests := []struct {
		name     string
		src      Source
		want     string
		wantFrom string
		wantErr  error
	}{
		{"none", Source{}, "", "none", nil},
		{"cookies wins", Source{Cookies: "from=flag", CookiesFile: cookieFile, CurlCommand: "curl -b 'x=1'"}, "from=flag", "cookies", nil},
		{"cookies file beats curl", Source{CookiesFile: cookieFile, CurlFile: curlFile}, "from=file", "cookies-file", nil},
		{"curl command beats curl file", Source{CurlCommand: "curl x -b 'from=cmd'", CurlFile: curlFile}, "from=cmd", "curl-command", nil},
		{"curl file", Source{CurlFile: curlFile}, "from=curlfile", "curl-file", nil},
		{"curl command without flag", Source{CurlCommand: "curl https://example.com"}, "", "curl-command", ErrNoCookieFlag},
		{"curl file without flag", Source{CurlFile: badCurlFile}, "", "curl-file", ErrNoCookieFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, from, err := Resolve(tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want || from != tt.wantFrom {
				t.Errorf("Resolve() = (%q, %q), want (%q, %q)", got, from, tt.want, tt.wantFrom)
			}
		})
	}

	if _, _, err := Resolve(Source{CookiesFile: filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing cookies file")
	}
}

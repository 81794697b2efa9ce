package credential

import (
	"fmt"
	"os"
	"strings"
)

// DefaultFile is where extracted cookies are saved for later runs.
const DefaultFile = "phantom_ranch_cookies.txt"

// ReadFile loads a cookie string saved by WriteFile or by hand.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("credential: read cookies: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteFile stores a cookie string readable only by the operator.
func WriteFile(path, cookies string) error {
	if err := os.WriteFile(path, []byte(cookies), 0600); err != nil {
		return fmt.Errorf("credential: write cookies: %w", err)
	}
	return nil
}

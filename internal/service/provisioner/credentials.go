package provisioner

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
)

const (
	usernamePrefix     = "dbuser_"
	orgSuffixLength    = 8
	passwordEntropyLen = 24
)

// databaseUsername derives a deterministic credential identity from the
// organization id so that repair and rotation target the same user.
func databaseUsername(organizationID string) string {
	suffix := organizationID
	if len(suffix) > orgSuffixLength {
		suffix = suffix[len(suffix)-orgSuffixLength:]
	}
	return usernamePrefix + suffix
}

func generatePassword() (string, error) {
	buf := make([]byte, passwordEntropyLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	// URL-safe alphabet so the password survives connection string
	// interpolation without escaping.
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// buildConnectionString interpolates the generated credential into the
// cluster's connection template. The result is handed to the vault and the
// bootstrap step only.
func buildConnectionString(template, username, password, databaseName string) (string, error) {
	parsed, err := url.Parse(template)
	if err != nil {
		return "", fmt.Errorf("failed to parse cluster connection template: %w", err)
	}

	parsed.User = url.UserPassword(username, password)
	parsed.Path = "/" + databaseName

	query := parsed.Query()
	query.Set("retryWrites", "true")
	query.Set("w", "majority")
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

package gemini

import (
	"fmt"
	"strings"
)

// CredentialError marks a provider rejection caused by a bad or revoked
// API key. The pipeline aborts immediately when it sees one.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("provider rejected credentials: %v", e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// IsCredentialError checks the provider error text for auth failure
// patterns. The SDK does not expose typed status codes for these.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*CredentialError); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "unauthenticated") ||
		strings.Contains(errStr, "api key") ||
		strings.Contains(errStr, "api_key_invalid")
}

// isRateLimitError checks for 429 patterns worth retrying on another key.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(strings.ToLower(errStr), "rate limit") ||
		strings.Contains(strings.ToLower(errStr), "quota")
}

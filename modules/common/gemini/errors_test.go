package gemini

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCredentialError(t *testing.T) {
	assert.True(t, IsCredentialError(errors.New("googleapi: Error 403: The caller does not have permission")))
	assert.True(t, IsCredentialError(errors.New("rpc error: code = Unauthenticated desc = API key not valid")))
	assert.True(t, IsCredentialError(errors.New("API_KEY_INVALID")))
	assert.True(t, IsCredentialError(errors.New("permission denied")))
	assert.True(t, IsCredentialError(&CredentialError{Err: errors.New("revoked")}))

	assert.False(t, IsCredentialError(nil))
	assert.False(t, IsCredentialError(errors.New("429 resource exhausted")))
	assert.False(t, IsCredentialError(errors.New("connection reset by peer")))
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("googleapi: Error 429: Resource has been exhausted")))
	assert.True(t, isRateLimitError(errors.New("Rate limit exceeded")))
	assert.True(t, isRateLimitError(errors.New("quota exceeded for model")))

	assert.False(t, isRateLimitError(nil))
	assert.False(t, isRateLimitError(errors.New("500 internal error")))
}

func TestCredentialErrorUnwrap(t *testing.T) {
	inner := errors.New("key revoked")
	err := &CredentialError{Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "key revoked")

	wrapped := fmt.Errorf("shot 3: %w", err)
	var credErr *CredentialError
	assert.True(t, errors.As(wrapped, &credErr))
}

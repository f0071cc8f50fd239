package internal

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/apigate/pkg/respond"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("code derived from status", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, respond.TypeAuthenticationError, ErrUnauthorized("no token").ErrorCode())
		assert.Equal(t, respond.TypeAuthorizationError, ErrForbidden("nope").ErrorCode())
		assert.Equal(t, respond.TypeResourceNotFound, ErrNotFound("gone").ErrorCode())
		assert.Equal(t, respond.TypeRateLimitExceeded, ErrTooManyRequests("slow down").ErrorCode())
	})

	t.Run("explicit code wins over status default", func(t *testing.T) {
		t.Parallel()

		err := ErrEndpointNotFound("no such route")
		assert.Equal(t, http.StatusNotFound, err.StatusCode())
		assert.Equal(t, respond.TypeEndpointNotFound, err.ErrorCode())
	})

	t.Run("unsupported version is a 400", func(t *testing.T) {
		t.Parallel()

		err := ErrUnsupportedVersion("API version 'v9' is not supported")
		assert.Equal(t, http.StatusBadRequest, err.StatusCode())
		assert.Equal(t, respond.TypeUnsupportedAPIVersion, err.ErrorCode())
	})

	t.Run("unwrap exposes the cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("pg down")
		err := ErrInternal("Internal server error", WithError(cause))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("envelope carries fields and decorators", func(t *testing.T) {
		t.Parallel()

		err := ErrUnprocessable("Validation failed",
			WithFields(map[string][]string{"title": {"required"}}),
			WithEnvelope(func(env *respond.Envelope) {
				env.Error.RetryAfter = 30
			}),
		)

		env := err.Envelope()
		require.NotNil(t, env.Error)
		assert.Equal(t, respond.TypeValidationError, env.Error.Type)
		assert.Contains(t, env.Errors, "title")
		assert.Equal(t, 30, env.Error.RetryAfter)
	})
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, AsHTTPError(nil))
	assert.Nil(t, AsHTTPError(errors.New("plain")))

	httpErr := ErrBadRequest("bad")
	assert.Equal(t, httpErr, AsHTTPError(httpErr))
}

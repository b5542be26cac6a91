package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMappings(t *testing.T) {
	cases := []struct {
		err    *AppError
		kind   Kind
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), KindBadRequest, http.StatusBadRequest, codes.InvalidArgument},
		{NotFound("missing"), KindNotFound, http.StatusNotFound, codes.NotFound},
		{Unauthorized("denied"), KindUnauthorized, http.StatusForbidden, codes.PermissionDenied},
		{InvalidTransition("stuck"), KindInvalidTransition, http.StatusConflict, codes.FailedPrecondition},
		{Conflict("taken"), KindConflict, http.StatusConflict, codes.AlreadyExists},
		{Internal("boom"), KindInternal, http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind())
		assert.Equal(t, tc.status, tc.err.StatusCode())
		assert.Equal(t, tc.code, tc.err.GRPCCode())
	}
}

func TestCauseAndDetails(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := Internal("store failed", WithCause(cause), WithDetail("order_id", int64(42)))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store failed: disk on fire", err.Error())
	assert.Equal(t, int64(42), err.Details()["order_id"])
}

func TestFrom(t *testing.T) {
	t.Run("passes app errors through", func(t *testing.T) {
		original := NotFound("missing")
		wrapped := fmt.Errorf("loading order: %w", original)

		appErr := From(wrapped)
		require.NotNil(t, appErr)
		assert.Equal(t, KindNotFound, appErr.Kind())
	})

	t.Run("wraps foreign errors as internal", func(t *testing.T) {
		appErr := From(errors.New("socket hangup"))
		require.NotNil(t, appErr)
		assert.Equal(t, KindInternal, appErr.Kind())
		assert.ErrorContains(t, appErr, "socket hangup")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})
}

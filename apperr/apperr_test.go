package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"validation", Validation("title is required"), KindValidation, http.StatusBadRequest},
		{"auth", Auth("unauthorized"), KindAuth, http.StatusUnauthorized},
		{"forbidden", Forbidden("owner only"), KindForbidden, http.StatusForbidden},
		{"not found", NotFound("bug"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("duplicate"), KindConflict, http.StatusConflict},
		{"rate limited", RateLimited("slow down"), KindRateLimited, http.StatusTooManyRequests},
		{"plain error", errors.New("boom"), KindInternal, http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("get bug: %w", NotFound("bug")), KindNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.status, KindOf(tt.err).HTTPStatus())
		})
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bug not found", PublicMessage(NotFound("bug")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", PublicMessage(Internal(errors.New("secret detail"))))
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

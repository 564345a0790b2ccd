package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/redirect"
	"github.com/zaplinker/backend/internal/repository"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"not found", repository.ErrNotFound, ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", repository.ErrNotFound), ErrNotFound, http.StatusNotFound},
		{"workspace gone", redirect.ErrWorkspaceNotFound, ErrNotFound, http.StatusNotFound},
		{"no active numbers", redirect.ErrNoActiveNumbers, ErrNoActiveNumber, http.StatusNotFound},
		{"taken", repository.ErrCustomURLTaken, ErrConflict, http.StatusConflict},
		{"invalid", repository.ErrInvalidInput, ErrBadRequest, http.StatusBadRequest},
		{"plan", plans.CheckWorkspaceQuota("free", 10), ErrPlanLimit, http.StatusForbidden},
		{"api error", Forbidden("nope"), ErrForbidden, http.StatusForbidden},
		{"unknown", fmt.Errorf("boom"), ErrInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err, "workspace")
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code.StatusCode(), apiErr.Status)
		})
	}
	assert.Nil(t, FromError(nil, "workspace"))
}

func TestAPIErrorString(t *testing.T) {
	assert.Equal(t, "VALIDATION_ERROR: too long (field: name)", ValidationError("name", "too long").Error())
	assert.Equal(t, "NOT_FOUND: number not found", NotFound("number").Error())
	assert.Equal(t, "details", BadRequest("x").WithDetails("details").Details)
}

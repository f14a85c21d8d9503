package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrLoginRequired, "login first")

	assert.Equal(t, "login first", err.Message)
	assert.True(t, stderrors.Is(err, ErrLoginRequired))
	assert.False(t, stderrors.Is(err, ErrForbidden))
	assert.Equal(t, "please choose a role to log in first", ErrLoginRequired.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	typed := Field("file_name", "required")
	assert.Same(t, typed, FromError(fmt.Errorf("wrapped: %w", typed)))
	assert.Equal(t, map[string]string{"file_name": "required"}, typed.Details)
	assert.Nil(t, ErrValidation.Details)
}

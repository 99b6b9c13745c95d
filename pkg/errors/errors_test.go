package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreErrorMessageWrapsCause(t *testing.T) {
	cause := stderrors.New("deadline exceeded")
	err := Store("Failed to send message", cause)

	assert.Equal(t, "Failed to send message: deadline exceeded", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, stderrors.Is(err, cause))
}

func TestIsMatchesWrappedCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Validation("amount must be positive", nil))

	assert.True(t, Is(err, CodeValidation))
	assert.False(t, Is(err, CodeStore))
	assert.False(t, Is(stderrors.New("plain"), CodeValidation))
}

func TestErrorWithoutCause(t *testing.T) {
	assert.Equal(t, "Chat already exists", Conflict("Chat already exists").Error())
	assert.Equal(t, "Product not found", NotFound("Product", nil).Error())
}

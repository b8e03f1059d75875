package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("load invoice: %w", NewDomainError("NOT_FOUND", "invoice not found"))

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrInvalidInput))
	assert.Equal(t, "NOT_FOUND", CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(errors.New("plain")))
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := Wrap(fmt.Errorf("timeout 30000ms exceeded"), ErrorTypeNavigation, "navigate results")
	assert.Equal(t, "navigation error in navigate results: timeout 30000ms exceeded", err.Error())

	plain := New(ErrorTypePagination, "", "target page is behind the visible window")
	assert.Equal(t, "pagination error: target page is behind the visible window", plain.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, ErrorTypeSession, "login"))
}

func TestIsTypeThroughChain(t *testing.T) {
	inner := Wrap(stderrors.New("no such element"), ErrorTypeInteraction, "click proceed")
	outer := Wrap(fmt.Errorf("select query: %w", inner), ErrorTypeSession, "restart")

	assert.True(t, IsType(outer, ErrorTypeSession))
	assert.True(t, IsType(outer, ErrorTypeInteraction))
	assert.False(t, IsType(outer, ErrorTypePagination))
	assert.Equal(t, ErrorTypeSession, TypeOf(outer))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestSentinelMatching(t *testing.T) {
	sentinel := New(ErrorTypePagination, "", "page out of range")
	wrapped := fmt.Errorf("goto page 9: %w", sentinel)

	assert.True(t, stderrors.Is(wrapped, sentinel))
	assert.False(t, stderrors.Is(wrapped, New(ErrorTypePagination, "", "empty window")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNavigation, true},
		{ErrorTypeInteraction, true},
		{ErrorTypeSession, false},
		{ErrorTypePagination, false},
		{ErrorTypeCheckpoint, false},
		{ErrorTypeConfig, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}

	assert.True(t, IsRetryableError(Wrap(stderrors.New("x"), ErrorTypeNavigation, "goto")))
	assert.False(t, IsRetryableError(nil))
}

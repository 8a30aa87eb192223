package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{0, ErrorTypeNetwork},
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusBadRequest, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForStatus(tt.status))
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	err := fmt.Errorf("login: %w", New(ErrorTypeAuth, 401, "bad password"))

	assert.Equal(t, ErrorTypeAuth, TypeOf(err))
	assert.True(t, IsAuth(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeParsing))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeAuth, Code: 401, Message: "Invalid identifier or password", XRPCError: "AuthenticationRequired"}
	assert.Equal(t, "auth error (code 401, AuthenticationRequired): Invalid identifier or password", err.Error())

	plain := New(ErrorTypeServerError, 502, "server returned status %d", 502)
	assert.Equal(t, "server_error error (code 502): server returned status 502", plain.Error())
}

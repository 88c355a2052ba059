package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAuthError_Categories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "invalid credentials by message",
			err:  &fakeAPIError{Message: "Invalid login credentials"},
			want: "Incorrect email or password.",
		},
		{
			name: "invalid credentials by code",
			err:  &fakeAPIError{Message: "request failed", Code: "invalid_credentials"},
			want: "Incorrect email or password.",
		},
		{
			name: "unverified email",
			err:  &fakeAPIError{Message: "Email not confirmed", Code: "email_not_confirmed"},
			want: "Please verify your email address before signing in.",
		},
		{
			name: "duplicate account",
			err:  &fakeAPIError{Message: "User already registered"},
			want: "An account with this email already exists.",
		},
		{
			name: "weak password",
			err:  &fakeAPIError{Message: "Password should be at least 8 characters"},
			want: "Password is too weak. Use at least 8 characters.",
		},
		{
			name: "cancelled federated sign-in",
			err:  &fakeAPIError{Message: "sign in was cancelled by the user", Code: "SIGN_IN_CANCELLED"},
			want: "Sign-in was cancelled.",
		},
		{
			name: "missing play services",
			err:  &fakeAPIError{Message: "Google Play Services not available", Code: "PLAY_SERVICES_NOT_AVAILABLE"},
			want: "Google Play services are unavailable on this device.",
		},
		{
			name: "misconfigured client",
			err:  &fakeAPIError{Message: "status 10", Code: "DEVELOPER_ERROR"},
			want: "Google sign-in is misconfigured. Please contact support.",
		},
		{
			name: "plain network error",
			err:  errors.New("dial tcp: connection refused"),
			want: "Network error. Check your connection and try again.",
		},
		{
			name: "unmatched falls through to default",
			err:  errors.New("something nobody anticipated"),
			want: genericAuthMessage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyAuthError(tt.err))
		})
	}
}

func TestClassifyAuthError_RuleOrderFirstMatchWins(t *testing.T) {
	// A message matching both "invalid credentials" and "network" resolves
	// to the earlier rule.
	err := &fakeAPIError{Message: "Invalid login credentials (network retry exhausted)"}
	assert.Equal(t, "Incorrect email or password.", classifyAuthError(err))
}

func TestProviderMessage_VerbatimWhenAvailable(t *testing.T) {
	err := &fakeAPIError{Message: "Password should be at least 8 characters", Code: "weak_password"}
	assert.Equal(t, "Password should be at least 8 characters", providerMessage(err))

	// Wrapped errors still expose the provider message.
	wrapped := errors.Join(errors.New("handshake"), err)
	assert.Equal(t, "Password should be at least 8 characters", providerMessage(wrapped))

	// No provider message: fall back to classification.
	assert.Equal(t, "Network error. Check your connection and try again.",
		providerMessage(errors.New("timeout waiting for response")))
}

func TestClassifyAuthError_NilIsEmpty(t *testing.T) {
	assert.Empty(t, classifyAuthError(nil))
}

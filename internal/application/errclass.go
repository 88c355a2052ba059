package application

import (
	"errors"
	"strings"

	"github.com/uniscout/identity-engine/internal/domain/repository"
)

// genericAuthMessage is the guaranteed fallback when no rule matches.
const genericAuthMessage = "Sign-in failed. Please try again."

// classifyRule pairs a predicate with its user-facing category message.
// Rules are evaluated in order; the first match wins. String matching on
// provider messages is fragile by nature, so the set lives in one table
// that the tests exercise independently of any SDK.
type classifyRule struct {
	match   func(msg, code string) bool
	message string
}

func anyOf(needles ...string) func(msg, code string) bool {
	return func(msg, code string) bool {
		for _, n := range needles {
			if strings.Contains(msg, n) || (code != "" && strings.Contains(code, n)) {
				return true
			}
		}
		return false
	}
}

var authRules = []classifyRule{
	{anyOf("invalid login credentials", "invalid_credentials"), "Incorrect email or password."},
	{anyOf("email not confirmed", "email_not_confirmed"), "Please verify your email address before signing in."},
	{anyOf("already registered", "user_already_exists"), "An account with this email already exists."},
	{anyOf("password should be at least", "weak_password"), "Password is too weak. Use at least 8 characters."},
	{anyOf("sign_in_cancelled", "sign in was cancelled", "user canceled"), "Sign-in was cancelled."},
	{anyOf("play_services_not_available", "play services"), "Google Play services are unavailable on this device."},
	{anyOf("developer_error", "audience", "invalid client"), "Google sign-in is misconfigured. Please contact support."},
	{anyOf("banned"), "This account has been suspended."},
	{anyOf("network", "timeout", "connection refused", "no such host"), "Network error. Check your connection and try again."},
}

// classifyAuthError maps a provider/handshake error onto one of the fixed
// user-facing categories, defaulting to genericAuthMessage.
func classifyAuthError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	code := ""
	var re repository.RemoteError
	if errors.As(err, &re) {
		msg = strings.ToLower(re.RemoteMessage())
		code = strings.ToLower(re.RemoteCode())
	}
	for _, rule := range authRules {
		if rule.match(msg, code) {
			return rule.message
		}
	}
	return genericAuthMessage
}

// providerMessage surfaces the provider's own message verbatim (credential
// and validation failures must not be rewritten); anything without one goes
// through classification instead.
func providerMessage(err error) string {
	var re repository.RemoteError
	if errors.As(err, &re) && re.RemoteMessage() != "" {
		return re.RemoteMessage()
	}
	return classifyAuthError(err)
}

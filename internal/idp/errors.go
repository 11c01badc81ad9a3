package idp

import (
	"errors"
	"fmt"
)

// Well-known provider error codes the orchestrators branch on. Any code not
// listed here is surfaced verbatim and handled generically.
const (
	CodeOTPExpired           = "otp_expired"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeEmailNotConfirmed    = "email_not_confirmed"
	CodeEmailExists          = "email_exists"
	CodeWeakPassword         = "weak_password"
	CodeSamePassword         = "same_password"
	CodeEmailInvalid         = "email_address_invalid"
	CodeReauthNeeded         = "reauthentication_needed"
	CodeOverRequestRateLimit = "over_request_rate_limit"
)

// Error is a provider-side rejection. Code carries the provider's
// machine-readable error code verbatim so callers can branch on it.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("provider: %s", e.Message)
}

// AsError unwraps err into a provider *Error when possible.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCode reports whether err is a provider error with the given code.
func IsCode(err error, code string) bool {
	pe, ok := AsError(err)
	return ok && pe.Code == code
}

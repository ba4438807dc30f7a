package session

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrorKind is the fixed classification every provider failure is folded
// into. Handlers map kinds to HTTP statuses; the mobile client maps them to
// toast titles.
type ErrorKind int

const (
	ErrOther ErrorKind = iota
	ErrExpiredLink
	ErrNetwork
	ErrRateLimited
	ErrInvalidCredentials
	ErrDuplicateAccount
	ErrWeakPassword
	ErrUnconfirmedEmail
	ErrExpiredSession
	ErrServer
)

// AuthError carries the user-facing title + description pair alongside the
// classified kind. Callers never retry automatically; the user re-invokes.
type AuthError struct {
	Kind        ErrorKind
	Title       string
	Description string
	cause       error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return e.Title + ": " + e.cause.Error()
	}
	return e.Title + ": " + e.Description
}

func (e *AuthError) Unwrap() error { return e.cause }

var errorMessages = map[ErrorKind][2]string{
	ErrExpiredLink:        {"Link Expired", "This link has expired. Request a new one and try again."},
	ErrNetwork:            {"Connection Problem", "Could not reach the server. Check your connection and try again."},
	ErrRateLimited:        {"Too Many Attempts", "You are trying too often. Wait a moment before retrying."},
	ErrInvalidCredentials: {"Sign In Failed", "Phone number or password is incorrect."},
	ErrDuplicateAccount:   {"Already Registered", "An account with this phone number already exists."},
	ErrWeakPassword:       {"Weak Password", "Choose a longer password (at least 6 characters)."},
	ErrUnconfirmedEmail:   {"Account Not Confirmed", "Confirm your account before signing in."},
	ErrExpiredSession:     {"Session Expired", "Your session has expired. Sign in again."},
	ErrServer:             {"Server Error", "Something went wrong on our end. Please try again."},
	ErrOther:              {"Something Went Wrong", "The request did not succeed. Please try again."},
}

func newAuthError(kind ErrorKind, cause error) *AuthError {
	msg := errorMessages[kind]
	return &AuthError{Kind: kind, Title: msg[0], Description: msg[1], cause: cause}
}

// Sentinel errors the local provider returns; remote providers are matched
// on message substrings instead.
var (
	ErrBadLogin      = errors.New("invalid login credentials")
	ErrAccountExists = errors.New("account already registered")
	ErrNoSession     = errors.New("no active session")
)

// Classify folds any provider error into the fixed taxonomy.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return newAuthError(ErrNetwork, err)
	}

	switch {
	case errors.Is(err, ErrBadLogin):
		return newAuthError(ErrInvalidCredentials, err)
	case errors.Is(err, ErrAccountExists):
		return newAuthError(ErrDuplicateAccount, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "otp_expired") || (strings.Contains(msg, "link") && strings.Contains(msg, "expired")):
		return newAuthError(ErrExpiredLink, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return newAuthError(ErrRateLimited, err)
	case strings.Contains(msg, "invalid login credentials") || strings.Contains(msg, "invalid email or password"):
		return newAuthError(ErrInvalidCredentials, err)
	case strings.Contains(msg, "already registered") || strings.Contains(msg, "already exists"):
		return newAuthError(ErrDuplicateAccount, err)
	case strings.Contains(msg, "password should be") || strings.Contains(msg, "weak password"):
		return newAuthError(ErrWeakPassword, err)
	case strings.Contains(msg, "email not confirmed"):
		return newAuthError(ErrUnconfirmedEmail, err)
	case strings.Contains(msg, "refresh_token") || strings.Contains(msg, "session expired") || strings.Contains(msg, "jwt expired"):
		return newAuthError(ErrExpiredSession, err)
	case strings.Contains(msg, "network") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout"):
		return newAuthError(ErrNetwork, err)
	case strings.Contains(msg, "internal server error") || strings.Contains(msg, "status 5"):
		return newAuthError(ErrServer, err)
	}
	return newAuthError(ErrOther, err)
}

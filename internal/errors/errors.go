package errors

import (
	"errors"
	"fmt"
)

// Common error types for the clinic API client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotAuthenticated   = errors.New("not authenticated")

	// Token errors
	ErrNoStoredCredentials = errors.New("no stored credentials")
	ErrPartialCredentials  = errors.New("partial credential pair")
	ErrMalformedTokens     = errors.New("malformed token response")

	// Transport errors
	ErrUnauthorized   = errors.New("request unauthorized")
	ErrRetryExhausted = errors.New("authorized retry already attempted")

	// Store errors
	ErrStoreCorrupt = errors.New("credential store corrupt")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

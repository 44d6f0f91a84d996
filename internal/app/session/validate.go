/*
Package session owns the authenticated identity and its lifecycle.

This file holds the local input checks callers run before invoking any Store
operation. A validation failure is resolved entirely locally and never causes
a network call.
*/
package session

import (
	"unicode/utf8"

	"questify/internal/pkg/errs"
)

// MinPasswordLength is the minimum accepted password length in runes.
const MinPasswordLength = 6

// ValidateRegistrationInput checks the registration form fields locally.
// It returns the first failing check as a validation error.
func ValidateRegistrationInput(email, password, confirmation string) error {
	if email == "" || password == "" {
		return errs.NewError(errs.ErrMissingCredentials)
	}

	if password != confirmation {
		return errs.NewError(errs.ErrPasswordMismatch)
	}

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errs.NewError(errs.ErrPasswordTooShort, MinPasswordLength)
	}

	return nil
}

// ValidateLoginInput checks the login form fields locally.
func ValidateLoginInput(identifier, secret string) error {
	if identifier == "" || secret == "" {
		return errs.NewError(errs.ErrMissingCredentials)
	}
	return nil
}

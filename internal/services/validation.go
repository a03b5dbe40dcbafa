package services

import (
	"net/mail"
	"strings"
	"unicode"

	apperrors "github.com/Karol96S/budgetapp/internal/errors"
)

// Credential format bounds.
const (
	usernameMinLen = 3
	usernameMaxLen = 20
	passwordMinLen = 6
	passwordMaxLen = 20
)

func validateUsername(ve *apperrors.ValidationError, field, username string) {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		ve.Add(field, "Username must be 3 to 20 characters long")
	}
}

func validateEmailFormat(ve *apperrors.ValidationError, field, email string) {
	if _, err := mail.ParseAddress(email); err != nil {
		ve.Add(field, "Invalid email address")
	}
}

func validatePassword(ve *apperrors.ValidationError, field, password string) {
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		ve.Add(field, "Password must be 6 to 20 characters long")
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		ve.Add(field, "Password needs at least one letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		ve.Add(field, "Password needs at least one digit")
	}
}

func validatePasswordConfirmation(ve *apperrors.ValidationError, field, password, repeat string) {
	if password != repeat {
		ve.Add(field, "Passwords must match")
	}
}

package account

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern = regexp.MustCompile(`(?i)^(([^<>()\[\].,;:\s@"]+(\.[^<>()\[\].,;:\s@"]+)*)|(".+"))@(([^<>()\[\].,;:\s@"]+\.)+[^<>()\[\].,;:\s@"]{2,})$`)
	phonePattern = regexp.MustCompile(`^(\+7|8)?\s?\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}$`)
)

const PasswordPolicy = "password must be 8 to 15 characters with at least one lowercase letter, " +
	"one uppercase letter, one digit and one special character, and no spaces"

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidPassword enforces the password policy. RE2 has no lookahead, so each
// class is checked by hand.
func ValidPassword(password string) bool {
	n := len([]rune(password))
	if n < 8 || n > 15 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return false
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

// ValidFullName wants at least two space separated words.
func ValidFullName(name string) bool {
	return len(strings.Fields(name)) >= 2
}

package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	digitPattern = regexp.MustCompile(`\d`)
)

var commonPasswords = []string{
	"password", "password123", "12345678", "admin123", "letmein",
	"qwerty", "123456789", "welcome", "monkey", "dragon",
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters long", ErrWeakPassword)
	}
	if !upperPattern.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}
	if !lowerPattern.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if !digitPattern.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one number", ErrWeakPassword)
	}

	lower := strings.ToLower(password)
	for _, common := range commonPasswords {
		if strings.Contains(lower, common) {
			return fmt.Errorf("%w: too common, please choose a stronger password", ErrWeakPassword)
		}
	}

	if hasLongRun(password, 4) {
		return fmt.Errorf("%w: contains too many repeated characters", ErrWeakPassword)
	}

	return nil
}

// hasLongRun reports whether any character repeats n or more times in a row.
func hasLongRun(s string, n int) bool {
	run := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

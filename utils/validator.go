// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateUsername allows ASCII letters, digits, dot, dash and underscore.
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// ValidateCategorySlug accepts lowercase ASCII words joined by single hyphens.
func ValidateCategorySlug(slug string) bool {
	return len(slug) <= 100 && slugRegex.MatchString(slug)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// RuneLength counts characters rather than bytes; Arabic letters are two bytes each.
func RuneLength(s string) int {
	return utf8.RuneCountInString(s)
}

package utils

import (
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
)

// NormalizeEmail lowercases and trims an address; bracketed display forms are unwrapped.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		startIdx := strings.LastIndex(email, "<") + 1
		endIdx := strings.LastIndex(email, ">")
		if startIdx > 0 && endIdx > startIdx {
			email = email[startIdx:endIdx]
		}
	}
	return strings.ToLower(strings.TrimSpace(email))
}

func ExtractDomainFromEmail(email string) string {
	email = NormalizeEmail(email)
	if email == "" {
		return ""
	}

	validation := mailvalidate.ValidateEmailSyntax(email)
	if validation.IsValid && validation.Domain != "" {
		return strings.ToLower(validation.Domain)
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

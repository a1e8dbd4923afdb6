package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace and escapes HTML
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(input))
}

// SanitizeOptional applies SanitizeString to an optional field, dropping blanks.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	sanitized := SanitizeString(*input)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}

// NormalizeIdentifier lowercases a username or email used for lookups.
func NormalizeIdentifier(identifier string) string {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	identifier = stripHTML(identifier)
	return removeControlChars(identifier)
}

// SanitizeEmail sanitizes email input
func SanitizeEmail(email string) string {
	return NormalizeIdentifier(email)
}

// SanitizePhone keeps digits and common phone punctuation only
func SanitizePhone(phone string) string {
	phone = stripHTML(strings.TrimSpace(phone))

	var result strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeText sanitizes multi-line text input such as rejection reasons
func SanitizeText(input string) string {
	escaped := html.EscapeString(strings.TrimSpace(input))

	var result strings.Builder
	for _, r := range escaped {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeRegions trims, de-duplicates and drops empty region names.
func SanitizeRegions(regions []string) []string {
	seen := make(map[string]struct{}, len(regions))
	out := make([]string, 0, len(regions))
	for _, region := range regions {
		region = SanitizeString(region)
		if region == "" {
			continue
		}
		key := strings.ToLower(region)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, region)
	}
	return out
}

func stripHTML(input string) string {
	return htmlTagPattern.ReplaceAllString(input, "")
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ValidateAndSanitizeEmail validates and sanitizes email
func ValidateAndSanitizeEmail(email string) (string, error) {
	sanitized := SanitizeEmail(email)
	if !IsValidEmail(sanitized) {
		return "", fmt.Errorf("invalid email format")
	}
	return sanitized, nil
}

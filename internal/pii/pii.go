// Package pii scrubs personally-identifying patterns from extracted
// writing samples before the text leaves the pipeline. The scrub must run
// before anything is sent to the external AI provider.
package pii

import "regexp"

// Replacement tokens preserve readability of the scrubbed sample.
const (
	redactedEmail = "[REDACTED_EMAIL]"
	redactedPhone = "[REDACTED_PHONE]"
	redactedName  = "[REDACTED_NAME]"
)

var (
	emailRE = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,24}\b`)

	phoneRE = regexp.MustCompile(`(?:\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]?\d{3}[\s\-.]?\d{4}`)

	// Names following an explicit role label, e.g. "Student: Jane Doe".
	labeledNameRE = regexp.MustCompile(`\b(?:Name|Student|Teacher|Educator|Parent)\s*[:\-]\s*[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+`)

	// Bare capitalized full names of two or three tokens.
	fullNameRE = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2}\b`)
)

// Scrub replaces common PII patterns with anonymized tokens.
func Scrub(text string) string {
	if text == "" {
		return text
	}

	cleaned := emailRE.ReplaceAllString(text, redactedEmail)
	cleaned = phoneRE.ReplaceAllString(cleaned, redactedPhone)
	cleaned = labeledNameRE.ReplaceAllString(cleaned, redactedName)
	cleaned = fullNameRE.ReplaceAllString(cleaned, redactedName)
	return cleaned
}

// Contains reports whether text appears to contain an email, phone
// number, or name pattern.
func Contains(text string) bool {
	if text == "" {
		return false
	}
	return emailRE.MatchString(text) ||
		phoneRE.MatchString(text) ||
		labeledNameRE.MatchString(text) ||
		fullNameRE.MatchString(text)
}

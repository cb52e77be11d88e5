package logger

import (
	"fmt"
	"strings"
)

// SanitizeNote redacts a free-text session note but keeps its size.
func SanitizeNote(note string) string {
	if note == "" {
		return "<empty>"
	}

	words := strings.Fields(note)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(note))
}

// SanitizeText is a general-purpose sanitizer for user-provided text such as
// locations.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GenerateID returns a random identifier. length trims the hex form when it is
// positive and shorter than a full uuid.
func GenerateID(length int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if length > 0 && length < len(id) {
		return id[:length]
	}
	return id
}

// NormalizeName trims surrounding whitespace from user supplied names.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// GetMaskedWord converts word to underscores for display
func GetMaskedWord(word string) string {
	if word == "" {
		return ""
	}
	runes := []rune(word)
	masked := make([]string, 0, len(runes))
	// Preserve spaces, mask everything else
	for _, r := range runes {
		if r == ' ' {
			masked = append(masked, " ")
		} else {
			masked = append(masked, "_")
		}
	}

	// Return format like "_ _ _ _ _"
	return strings.Join(masked, " ")
}

package strutils

import (
	"fmt"
	"strings"
	"unicode"
)

const VALID_HEX_DIGITS = "0123456789abcdefABCDEF"

const STRIPPED_UUID_LENGTH = 32

// NormalizeUUID strips dashes and lowercases uuid, requiring exactly 32 hex
// digits. The result is the canonical form used for token comparison.
func NormalizeUUID(uuid string) (string, error) {
	var normalized strings.Builder
	normalized.Grow(STRIPPED_UUID_LENGTH)

	for _, char := range uuid {
		if char == '-' {
			continue
		}
		if !strings.ContainsRune(VALID_HEX_DIGITS, char) {
			return "", fmt.Errorf("invalid character in UUID. input: '%s'", uuid)
		}
		normalized.WriteRune(unicode.ToLower(char))
	}
	if normalized.Len() != STRIPPED_UUID_LENGTH {
		return "", fmt.Errorf("normalized UUID has incorrect length. input: '%s'", uuid)
	}
	return normalized.String(), nil
}

// UUIDIsNormalized reports whether uuid is already in canonical form.
func UUIDIsNormalized(uuid string) bool {
	normalized, err := NormalizeUUID(uuid)
	return err == nil && normalized == uuid
}

package file

import (
	"fmt"
	"strings"
)

// ValidateFileHash returns the sha256 of filePath and compares it with
// expectedHash. An empty expectedHash skips the comparison.
func ValidateFileHash(filePath, expectedHash string) (string, error) {
	calculatedHash, err := CalculateFileHash(filePath)
	if err != nil {
		return "", err
	}

	if expectedHash != "" && !strings.EqualFold(calculatedHash, expectedHash) {
		return calculatedHash, fmt.Errorf("checksum mismatch: got %s, want %s", calculatedHash, expectedHash)
	}

	return calculatedHash, nil
}

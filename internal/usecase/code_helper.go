package usecase

import (
	"crypto/rand"
	"io"
	"strings"
)

// generateRewardCode creates a random, human-shareable reward code.
// Format: PC-XXXXX-XXXXX-XXXXX
func generateRewardCode() (string, error) {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const groups = 3
	const groupLen = 5

	buffer := make([]byte, groups*groupLen)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := range buffer {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	parts := make([]string, 0, groups)
	for g := 0; g < groups; g++ {
		parts = append(parts, string(buffer[g*groupLen:(g+1)*groupLen]))
	}
	return "PC-" + strings.Join(parts, "-"), nil
}

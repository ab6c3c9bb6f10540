package registry

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/Atmakurhemanthkumar/splitmate/internal/apperr"
	"github.com/Atmakurhemanthkumar/splitmate/internal/models"
)

// CodeAlphabet is the set of characters group codes are drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeGenerator returns a candidate group code.
type CodeGenerator func() (string, error)

// RandomCode draws models.GroupCodeLength characters from CodeAlphabet
// using crypto/rand, rejecting bytes that would bias the distribution.
func RandomCode() (string, error) {
	const limit = 256 - 256%len(CodeAlphabet)

	code := make([]byte, 0, models.GroupCodeLength)
	buf := make([]byte, models.GroupCodeLength*2)
	for len(code) < models.GroupCodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(code) == models.GroupCodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// NormalizeCode trims and uppercases a user-supplied code and checks its shape.
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", apperr.Validation("group code is required")
	}
	if len(code) != models.GroupCodeLength {
		return "", apperr.Validation("group code must be %d characters", models.GroupCodeLength)
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(CodeAlphabet, rune(code[i])) {
			return "", apperr.Validation("group code must contain only letters and digits")
		}
	}
	return code, nil
}

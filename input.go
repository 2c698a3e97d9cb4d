package tranquility

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// MaxInputGraphemes caps the length of a typed message in user-perceived
// characters.
const MaxInputGraphemes = 4000

// ValidateText checks a typed message before it is sent for analysis.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message is empty: %w", ErrValidation)
	}
	if n := uniseg.GraphemeClusterCount(text); n > MaxInputGraphemes {
		return fmt.Errorf("message is %d characters, limit is %d: %w", n, MaxInputGraphemes, ErrValidation)
	}
	return nil
}

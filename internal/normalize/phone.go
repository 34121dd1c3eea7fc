package normalize

import (
	"fmt"
	"strings"
)

// Phone returns a North American number as "(512) 555-0100", or "" when the
// input does not hold exactly ten digits after dropping a leading country code
// and any extension.
func Phone(s string) string {
	lower := strings.ToLower(s)
	for _, sep := range []string{"ext", "x", "#"} {
		if i := strings.Index(lower, sep); i > 0 {
			lower = lower[:i]
		}
	}

	digits := make([]byte, 0, 11)
	for i := 0; i < len(lower); i++ {
		if c := lower[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

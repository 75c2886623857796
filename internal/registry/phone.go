package registry

import (
	"regexp"
	"strings"
)

// Accepted forms: Belgian international (+32 followed by 8-9 digits) or the
// 10-digit local form starting with 0.
var phonePattern = regexp.MustCompile(`^(?:\+32\d{8,9}|0\d{9})$`)

// NormalizePhone strips whitespace, validates the number and removes the
// leading "+". The returned value is the form stored in the registry and
// used to look up worksheet blocks.
func NormalizePhone(raw string) (string, error) {
	phone := strings.Join(strings.Fields(raw), "")
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return strings.TrimPrefix(phone, "+"), nil
}

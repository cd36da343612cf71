package identity

import (
	"strings"
	"unicode/utf8"
)

// weakPasswordReason returns why password is too weak for email, or "".
// Length is checked by validation first.
func weakPasswordReason(email, password string) string {
	if isSingleRepeatedRune(password) {
		return "password cannot be a single repeated character"
	}
	local, _, _ := strings.Cut(email, "@")
	if local != "" && strings.EqualFold(password, local) {
		return "password cannot be the same as your email name"
	}
	return ""
}

func isSingleRepeatedRune(s string) bool {
	first, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return false
	}
	for _, r := range s[size:] {
		if r != first {
			return false
		}
	}
	return true
}

func emailDomain(email string) string {
	_, domain, _ := strings.Cut(email, "@")
	return strings.ToLower(domain)
}

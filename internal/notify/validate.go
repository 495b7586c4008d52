package notify

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// exactBlacklist are generic throwaway addresses members type to get past
// the form; mailing credentials to them only generates bounces.
var exactBlacklist = map[string]bool{
	"test@gmail.com": true,
	"user@gmail.com": true,
}

// ValidEmail reports whether an address is worth sending credentials to:
// syntactically valid and not an obvious placeholder.
func ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	lower := strings.ToLower(email)
	if len(lower) < 6 {
		return false
	}
	if !emailRegex.MatchString(lower) {
		return false
	}
	if strings.Contains(lower, "noemail") ||
		strings.Contains(lower, "test@test") ||
		strings.Contains(lower, "dummy@dummy") {
		return false
	}
	return !exactBlacklist[lower]
}

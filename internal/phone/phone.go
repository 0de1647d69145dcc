// Package phone normalizes and validates phone numbers for dialing
package phone

import (
	"regexp"
	"strings"
)

// canonicalPattern matches an E.164 number: a leading + followed by 10-15 digits.
var canonicalPattern = regexp.MustCompile(`^\+\d{10,15}$`)

var bareDigitsPattern = regexp.MustCompile(`^\d{10,11}$`)

// stripChars are separators users commonly type into a dial pad.
const stripChars = " \t-()."

// Normalize converts a raw dialed or received number to E.164 form.
// UK numbers are the assumed default: 07xxx becomes +447xxx, other
// leading-zero numbers become +44, and bare 10/11 digit strings are
// treated as domestic. Returns ok=false if the result is not a
// plausible E.164 number. Same input always yields the same output.
func Normalize(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	n := strings.Map(func(r rune) rune {
		if strings.ContainsRune(stripChars, r) {
			return -1
		}
		return r
	}, raw)

	switch {
	case canonicalPattern.MatchString(n):
		// Already E.164
	case strings.HasPrefix(n, "00"):
		n = "+" + n[2:]
	case strings.HasPrefix(n, "07") && len(n) == 11:
		n = "+44" + n[1:]
	case strings.HasPrefix(n, "0"):
		n = "+44" + n[1:]
	case bareDigitsPattern.MatchString(n):
		// Bare digits, assume domestic; drop the trunk digit at 11
		if len(n) == 11 {
			n = n[1:]
		}
		n = "+44" + n
	}

	if !canonicalPattern.MatchString(n) {
		return "", false
	}
	return n, true
}

// IsDialable reports whether number is already in canonical E.164 form.
// Used as a guard before any network action.
func IsDialable(number string) bool {
	return canonicalPattern.MatchString(number)
}

// Digits returns the canonical number with the leading + removed.
// Empty for non-canonical input.
func Digits(number string) string {
	if !IsDialable(number) {
		return ""
	}
	return strings.TrimPrefix(number, "+")
}

// Matches reports whether two raw numbers refer to the same line. Both
// sides are normalized; they match on equality or when one number's
// digits are a suffix of the other's, which tolerates differing
// national/international prefixes. Best-effort heuristic, not an exact
// comparison.
func Matches(a, b string) bool {
	na, ok := Normalize(a)
	if !ok {
		return false
	}
	nb, ok := Normalize(b)
	if !ok {
		return false
	}
	if na == nb {
		return true
	}
	da, db := Digits(na), Digits(nb)
	return strings.HasSuffix(da, db) || strings.HasSuffix(db, da)
}

package service

import "strings"

const maxQuantity = 1<<31 - 1

// ParseLeadingInt reads an optionally signed run of digits at the start of s,
// ignoring leading whitespace and anything after the digits ("12abc" is 12,
// "2.7" is 2). ok is false when no digits are present.
func ParseLeadingInt(s string) (n int, ok bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int(r - '0')
		if n > (maxQuantity-d)/10 {
			// saturate instead of overflowing
			n = maxQuantity
		} else {
			n = n*10 + d
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// ParseQuantity turns raw form input into a quantity of at least 1.
// Zero, negative and non-numeric input all yield 1.
func ParseQuantity(raw string) int {
	n, ok := ParseLeadingInt(raw)
	if !ok || n < 1 {
		return 1
	}
	return n
}

package utils

import (
	"regexp"
	"strconv"
)

var leadingNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseLeadingNumber extracts the first numeric token from a display string
// such as "20 g" or "10.5 cm". It returns (0, false) when the string carries
// no number; it never errors.
func ParseLeadingNumber(s string) (float64, bool) {
	match := leadingNumber.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

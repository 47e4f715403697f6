package api

import (
	"strconv"
	"strings"
)

// FormatDecimalBR renders v with at most two decimals, a comma separator and no
// trailing zeros: 30 → "30", 30.5 → "30,5", 30.25 → "30,25".
func FormatDecimalBR(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return strings.Replace(s, ".", ",", 1)
}

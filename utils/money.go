package utils

import "fmt"

// FormatCents renders an integer cent amount as a decimal string, e.g. 5 -> "0.05".
// Reward amounts are carried as int64 cents end to end so credit arithmetic stays
// exact; this helper exists only at presentation boundaries.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

package utils

import "fmt"

// CentsToAmount converts integer cents to a decimal currency amount for
// JSON responses.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

// AmountToCents converts a decimal amount from a request to cents,
// rounding to the nearest cent.
func AmountToCents(amount float64) int64 {
	if amount < 0 {
		return -AmountToCents(-amount)
	}
	return int64(amount*100 + 0.5)
}

// FormatCents renders cents as "12.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

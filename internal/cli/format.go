package cli

import (
	"fmt"
	"strconv"
	"strings"

	"wallet/internal/core"
)

// FormatRupees formats an amount with thousands separators and two
// decimals, e.g. 1234567 cents -> "₹12,345.67".
func FormatRupees(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, FormatNumber(cents/100), cents%100)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats part of whole as a percentage with one decimal.
// A zero whole yields "-".
func FormatPercent(part, whole core.Money) string {
	if whole.Cents == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part.Cents)*100/float64(whole.Cents))
}

// FormatMonth turns "2024-01" into "Jan 2024". Unparseable keys are
// returned unchanged.
func FormatMonth(key string) string {
	d, err := core.ParseDate(key + "-01")
	if err != nil {
		return key
	}
	return d.Format("Jan 2006")
}

// Truncate shortens s to at most n runes, marking the cut with "…".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

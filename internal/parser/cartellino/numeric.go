package cartellino

import (
	"strings"

	"github.com/shopspring/decimal"
)

var italianMonths = map[string]int{
	"GENNAIO":   1,
	"FEBBRAIO":  2,
	"MARZO":     3,
	"APRILE":    4,
	"MAGGIO":    5,
	"GIUGNO":    6,
	"LUGLIO":    7,
	"AGOSTO":    8,
	"SETTEMBRE": 9,
	"OTTOBRE":   10,
	"NOVEMBRE":  11,
	"DICEMBRE":  12,
}

// MonthNameToNumber returns the month number for an uppercase Italian month name.
func MonthNameToNumber(name string) (int, bool) {
	m, ok := italianMonths[name]
	return m, ok
}

// IsNumericToken reports whether token is an optionally signed decimal number
// such as "7", "-2.15" or "+160.00". Tokens containing a colon are clock
// times and never numeric.
func IsNumericToken(token string) bool {
	if token == "" || strings.ContainsRune(token, ':') {
		return false
	}
	i := 0
	if token[0] == '+' || token[0] == '-' {
		i++
	}
	intStart := i
	for i < len(token) && isDigit(token[i]) {
		i++
	}
	if i == intStart {
		return false
	}
	if i == len(token) {
		return true
	}
	if token[i] != '.' {
		return false
	}
	i++
	fracStart := i
	for i < len(token) && isDigit(token[i]) {
		i++
	}
	return i > fracStart && i == len(token)
}

// DecimalHoursFromPacked converts a packed hours value, where the two digits
// after the point are minutes, into decimal hours: 7.30 becomes 7.5.
func DecimalHoursFromPacked(value float64) float64 {
	if value == 0 {
		return 0
	}
	return unpack(decimal.NewFromFloat(value))
}

// packedTokenHours converts a numeric token straight from its text, skipping
// the float round trip.
func packedTokenHours(token string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(token, "+"))
	if err != nil {
		return 0, err
	}
	if d.IsZero() {
		return 0, nil
	}
	return unpack(d), nil
}

func unpack(d decimal.Decimal) float64 {
	sign := 1.0
	if d.IsNegative() {
		sign = -1.0
	}
	abs := d.Abs()
	hours := abs.Truncate(0)
	minutes := abs.Sub(hours).Shift(2).RoundBank(0)
	return sign * (hours.InexactFloat64() + minutes.InexactFloat64()/60.0)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

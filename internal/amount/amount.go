// Package amount turns user- or model-supplied monetary amounts into a canonical decimal
// and renders decimals back into the display form used by the forms.
package amount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// GroupSeparator separates thousands in formatted amounts (id-ID).
	GroupSeparator = "."
	// DecimalSeparator separates the fractional part in formatted amounts (id-ID).
	DecimalSeparator = ","
	// DisplayPlaces is the number of fractional digits Format keeps.
	DisplayPlaces = 2
)

// Raw is an amount as it arrived: either a JSON number or free text such as "Rp 12.500,00".
// The zero value is an empty text amount.
type Raw struct {
	text    string
	numeric bool
}

// Text wraps a textual amount.
func Text(s string) Raw {
	return Raw{text: s}
}

// Number wraps an already numeric amount.
func Number(d decimal.Decimal) Raw {
	return Raw{text: d.String(), numeric: true}
}

// IsNumeric reports whether the amount arrived as a number.
func (r Raw) IsNumeric() bool {
	return r.numeric
}

// String returns the amount as it arrived.
func (r Raw) String() string {
	return r.text
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (r *Raw) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Raw{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		*r = Text(s)
		return nil
	default:
		d, err := decimal.NewFromString(string(data))
		if err != nil {
			return fmt.Errorf("amount: %q is neither a number nor a string", data)
		}
		*r = Number(d)
		return nil
	}
}

// MarshalJSON writes numeric amounts as JSON numbers and text amounts as strings.
func (r Raw) MarshalJSON() ([]byte, error) {
	if r.numeric {
		return []byte(r.text), nil
	}
	return json.Marshal(r.text)
}

// Normalize converts a raw amount into a decimal. Numeric input passes through unchanged.
// Text input is parsed with ParseString. Normalize never fails: text without digits yields zero.
func Normalize(r Raw) decimal.Decimal {
	if r.numeric {
		d, err := decimal.NewFromString(r.text)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return ParseString(r.text)
}

// ParseString extracts a number from free text.
//
// Currency symbols, letters and spaces are ignored. A final '.' or ',' followed by exactly one
// or two digits is the decimal point; every other separator is a thousands separator. A '-'
// before the first digit makes the result negative. Text with no digits yields zero.
// Separators before the first digit are dropped, so ".50" and "Rp.50" both read as 50.
//
//	"Rp 12.500"   -> 12500
//	"12,50"       -> 12.5
//	"1.234.567,8" -> 1234567.8
//	"$1,299.99"   -> 1299.99
func ParseString(s string) decimal.Decimal {
	first := strings.IndexFunc(s, isDigit)
	if first == -1 {
		return decimal.Zero
	}
	negative := strings.Contains(s[:first], "-")

	// Trailing junk such as ",-" or " IDR" never carries digits.
	last := strings.LastIndexFunc(s, isDigit)
	body := s[first : last+1]

	intPart, fracPart := body, ""
	if sep := strings.LastIndexAny(body, ".,"); sep != -1 {
		tail := body[sep+1:]
		if n := len(tail); n >= 1 && n <= 2 && strings.IndexFunc(tail, isNotDigit) == -1 {
			intPart, fracPart = body[:sep], tail
		}
	}

	digits := keepDigits(intPart)
	if digits == "" {
		digits = "0"
	}
	if fracPart != "" {
		digits += "." + fracPart
	}
	if negative {
		digits = "-" + digits
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders d the way amounts are displayed and typed: grouped thousands with '.', a ','
// before the fraction, at most two fractional digits and no trailing zeros.
// ParseString(Format(d)) equals d for every d with at most two fractional digits.
func Format(d decimal.Decimal) string {
	d = d.Round(DisplayPlaces)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole := d.Truncate(0)
	frac := d.Sub(whole)

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(group(whole.String()))

	if !frac.IsZero() {
		// frac.String() is "0.x" or "0.xy".
		fs := strings.TrimPrefix(frac.StringFixed(DisplayPlaces), "0.")
		fs = strings.TrimRight(fs, "0")
		b.WriteString(DecimalSeparator)
		b.WriteString(fs)
	}
	return b.String()
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(GroupSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNotDigit(r rune) bool {
	return !isDigit(r)
}

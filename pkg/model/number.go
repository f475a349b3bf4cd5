package model

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Placeholder is rendered wherever a numeric field could not be parsed.
const Placeholder = "N/A"

// Number is a numeric field read from the readmission API.
//
// The API is loose about numbers: aggregates come back as JSON numbers,
// as decimal strings (MySQL DECIMAL columns), as null, or as "N/A" when
// there was nothing to aggregate. Number accepts all of them and never
// fails to unmarshal; anything that is not a finite number becomes an
// invalid Number, which formats as Placeholder.
type Number struct {
	value float64
	valid bool
}

// NumberOf returns a valid Number holding f. NaN and infinities are invalid.
func NumberOf(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{value: f, valid: true}
}

// ParseNumber converts a raw JSON token (or plain text) into a Number.
func ParseNumber(raw []byte) Number {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return Number{}
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return Number{}
		}
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return NumberOf(f)
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = ParseNumber(b)
	return nil
}

// MarshalJSON writes the number, or null when invalid.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.value, 'f', -1, 64)), nil
}

// Valid reports whether the field parsed as a finite number.
func (n Number) Valid() bool { return n.valid }

// Float returns the value and whether it is valid.
func (n Number) Float() (float64, bool) { return n.value, n.valid }

// Or returns the value, or def when invalid.
func (n Number) Or(def float64) float64 {
	if !n.valid {
		return def
	}
	return n.value
}

// Fixed2 formats with exactly two decimals, rounding half away from zero on
// the decimal value (12.345 -> "12.35").
func (n Number) Fixed2() string {
	if !n.valid {
		return Placeholder
	}
	return formatFixed(n.value, 2)
}

// Grouped formats as a thousands-separated integer (1234 -> "1,234").
func (n Number) Grouped() string {
	if !n.valid {
		return Placeholder
	}
	r := math.Round(n.value)
	if r >= -(1<<63) && r < 1<<63 {
		return humanize.Comma(int64(r))
	}
	i, _ := new(big.Float).SetFloat64(r).Int(nil)
	return humanize.BigComma(i)
}

// Plain formats with the shortest decimal representation (15.2 -> "15.2").
func (n Number) Plain() string {
	if !n.valid {
		return Placeholder
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

// String implements fmt.Stringer.
func (n Number) String() string { return n.Plain() }

// formatFixed rounds the shortest decimal form of v, not its binary value,
// so inputs such as 12.345 round up the way they read.
func formatFixed(v float64, places int) string {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return strconv.FormatFloat(v, 'f', places, 64)
	}
	neg := r.Sign() < 0
	r.Abs(r)

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))

	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Mul(rem, big.NewInt(2)).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}

	digits := q.String()
	if len(digits) <= places {
		digits = strings.Repeat("0", places-len(digits)+1) + digits
	}
	out := digits[:len(digits)-places]
	if places > 0 {
		out += "." + digits[len(digits)-places:]
	}
	if neg && strings.Trim(out, "0.") != "" {
		out = "-" + out
	}
	return out
}

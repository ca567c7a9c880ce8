// Package roman converts between integers and Roman numerals.
//
// To and From mirror each other for 1..3999. From is permissive: it accepts
// any sequence of the seven upper-case symbols and sums it with the usual
// subtractive rule, so "IIII" and "IM" both produce a value. Callers that take
// numerals from users should use Parse or Valid, which only accept the
// canonical spelling To would produce.
package roman

import (
	"strconv"

	"github.com/FocuswithJustin/writings/core/errors"
)

// Max is the largest value representable with standard numerals.
const Max = 3999

var table = []struct {
	value  int
	symbol string
}{
	{1000, "M"},
	{900, "CM"},
	{500, "D"},
	{400, "CD"},
	{100, "C"},
	{90, "XC"},
	{50, "L"},
	{40, "XL"},
	{10, "X"},
	{9, "IX"},
	{5, "V"},
	{4, "IV"},
	{1, "I"},
}

// To returns the Roman numeral for n. ok is false when n is outside 1..3999.
func To(n int) (string, bool) {
	if n <= 0 || n > Max {
		return "", false
	}
	buf := make([]byte, 0, 16)
	for _, e := range table {
		for n >= e.value {
			buf = append(buf, e.symbol...)
			n -= e.value
		}
	}
	return string(buf), true
}

// MustTo is like To but panics when n is out of range.
func MustTo(n int) string {
	s, ok := To(n)
	if !ok {
		panic("roman: value out of range: " + strconv.Itoa(n))
	}
	return s
}

func symbolValue(c byte) int {
	switch c {
	case 'I':
		return 1
	case 'V':
		return 5
	case 'X':
		return 10
	case 'L':
		return 50
	case 'C':
		return 100
	case 'D':
		return 500
	case 'M':
		return 1000
	}
	return 0
}

// From returns the value of s, scanning right to left: a symbol smaller than
// the largest seen so far is subtracted, anything else is added. ok is false
// for an empty string or any unknown symbol.
func From(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	total, largest := 0, 0
	for i := len(s) - 1; i >= 0; i-- {
		v := symbolValue(s[i])
		if v == 0 {
			return 0, false
		}
		if v < largest {
			total -= v
		} else {
			total += v
			largest = v
		}
	}
	return total, true
}

// Valid reports whether s is the canonical numeral of some value in 1..3999.
func Valid(s string) bool {
	n, ok := From(s)
	if !ok {
		return false
	}
	canonical, ok := To(n)
	return ok && canonical == s
}

// Parse returns the value of a canonical Roman numeral.
func Parse(s string) (int, error) {
	if !Valid(s) {
		return 0, errors.NewParse("roman numeral", s, "not a canonical numeral between I and MMMCMXCIX")
	}
	n, _ := From(s)
	return n, nil
}

// Package numfmt renders game quantities for display.
package numfmt

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	million = decimal.NewFromInt(1_000_000)
	// siLimit is where SI prefixes run out and scientific notation takes over.
	siLimit = decimal.New(1, 27)
)

// Short formats d compactly: grouped digits truncated to two places below
// a million, SI prefixes up to 10^27 and scientific notation beyond.
func Short(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.LessThan(million):
		return humanize.CommafWithDigits(d.InexactFloat64(), 2)
	case abs.LessThan(siLimit):
		return humanize.SIWithDigits(d.InexactFloat64(), 2, "")
	}
	return Scientific(d, 2)
}

// Scientific renders d as m.mmeN with the given number of fraction digits.
// It works past the float64 range.
func Scientific(d decimal.Decimal, digits int) string {
	if d.IsZero() {
		return "0"
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	coef := d.Coefficient().String()
	exp := len(coef) + int(d.Exponent()) - 1

	// Round the coefficient to digits+1 significant digits.
	r := decimal.NewFromBigInt(d.Coefficient(), int32(-(len(coef) - 1))).Round(int32(digits))
	if r.GreaterThanOrEqual(decimal.NewFromInt(10)) {
		r = r.Div(decimal.NewFromInt(10)).Round(int32(digits))
		exp++
	}
	return sign + r.StringFixed(int32(digits)) + "e" + strconv.Itoa(exp)
}

// Wait renders the time left to afford something. ok false means the wait
// cannot be estimated.
func Wait(d time.Duration, ok bool) string {
	switch {
	case !ok:
		return "never at this rate"
	case d <= 0:
		return "now"
	}
	var base time.Time
	return strings.TrimSpace(humanize.RelTime(base, base.Add(d), "", ""))
}

// Percent renders a multiplier such as 1.5 as "150%".
func Percent(f float64) string {
	return humanize.FtoaWithDigits(f*100, 2) + "%"
}

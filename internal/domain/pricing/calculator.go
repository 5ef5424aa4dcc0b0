package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Inputs struct {
	UnlockFee  int
	ListingFee int
}

type Output struct {
	UnlockFee  int
	ListingFee int
}

// Calculate returns the fees charged over M-Pesa. STK push only accepts whole
// shillings, so fees are integers and never negative.
func Calculate(in Inputs) Output {
	unlock := in.UnlockFee
	if unlock < 0 {
		unlock = 0
	}

	listing := in.ListingFee
	if listing < 0 {
		listing = 0
	}

	return Output{
		UnlockFee:  unlock,
		ListingFee: listing,
	}
}

// FormatKES renders amount as "KSh 45,000".
func FormatKES(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(0)

	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	digits := d.StringFixed(0)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "KSh " + sign + b.String()
}

// FormatDecimal renders an exact amount with two decimals, for revenue totals.
func FormatDecimal(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

package dashboard

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Ratio is a derived quotient that may be undefined. Division by zero yields
// the undefined value, which formats as "-" and never leaks a 0 or NaN into
// downstream tables.
type Ratio struct {
	value   decimal.Decimal
	defined bool
}

// NewRatio divides num by den. The result is undefined when den is zero.
func NewRatio(num, den decimal.Decimal) Ratio {
	if den.IsZero() {
		return Ratio{}
	}
	return Ratio{value: num.Div(den), defined: true}
}

// RatioOf builds a defined ratio from a raw value.
func RatioOf(value decimal.Decimal) Ratio {
	return Ratio{value: value, defined: true}
}

// Undefined is the zero Ratio.
func (r Ratio) Defined() bool { return r.defined }

// Decimal returns the underlying value; ok is false when undefined.
func (r Ratio) Decimal() (decimal.Decimal, bool) { return r.value, r.defined }

// Float returns the value as a float64, or NaN-free 0 plus ok=false when
// undefined. Callers that chart must check ok.
func (r Ratio) Float() (float64, bool) {
	if !r.defined {
		return 0, false
	}
	return r.value.InexactFloat64(), true
}

func (r Ratio) String() string {
	if !r.defined {
		return "-"
	}
	return r.value.Round(4).String()
}

// Percent formats the ratio as a percentage, "-" when undefined.
func (r Ratio) Percent() string {
	if !r.defined {
		return "-"
	}
	return fmt.Sprintf("%s%%", r.value.Mul(decimal.NewFromInt(100)).Round(2))
}

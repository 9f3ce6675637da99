package orders

import "math"

// Money represents currency in minor units (cents) to avoid float issues.
// DB adapters convert to/from NUMERIC(10,2).
type Money int64

// NewMoneyFromFloat creates Money from float64 major units, rounding to the nearest cent.
func NewMoneyFromFloat(f float64) Money {
	return Money(math.Round(f * 100.0))
}

// Float converts back to major units for presentation boundaries.
func (m Money) Float() float64 { return float64(m) / 100.0 }

package api

import (
	"github.com/shopspring/decimal"
)

// optionalPrice tells an absent price apart from an explicit null.
type optionalPrice struct {
	Set   bool
	Value decimal.NullDecimal
}

func (o *optionalPrice) UnmarshalJSON(b []byte) error {
	o.Set = true
	return o.Value.UnmarshalJSON(b)
}

func (o optionalPrice) patch() *decimal.NullDecimal {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

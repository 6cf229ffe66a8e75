package solpay

import (
	"github.com/shopspring/decimal"
)

// toBaseUnits converts a whole-unit amount into integer base units for an
// asset with the given decimal precision. The amount must not carry more
// decimal places than the asset allows (there is no rounding of payment
// amounts) and must fit in a uint64.
func toBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if !amount.Equal(amount.Truncate(int32(decimals))) {
		return 0, ErrAmountDecimals
	}
	base := amount.Shift(int32(decimals)).BigInt()
	if !base.IsUint64() {
		return 0, ErrAmountOutOfRange
	}
	return base.Uint64(), nil
}

// lamportsToSOL converts a lamport delta into whole SOL for comparisons
// against requested amounts.
func lamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-SOLDecimals)
}

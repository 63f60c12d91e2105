// Package coerce converts loosely typed row values into the numeric types
// used by domain logics and aggregate functions.
package coerce

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal converts v to a decimal. The boolean is false when v is nil, an
// empty or non-numeric string, or a type that has no numeric reading.
// JSON numbers unmarshal to float64; NewFromFloat keeps their shortest exact
// representation.
func Decimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int8:
		return decimal.NewFromInt(int64(val)), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(val)), 0), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// Int64 converts v to an int64. Fractional values are rejected rather than
// truncated.
func Int64(v any) (int64, bool) {
	d, ok := Decimal(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MinorUnits converts a major-unit amount into cents, rounding half away from
// zero. Absent or unparsable amounts become 0.
func (n *Normalizer) MinorUnits(amount any) int64 {
	value, ok := toDecimal(amount)
	if !ok {
		return 0
	}
	return value.Mul(hundred).Round(0).IntPart()
}

// toDecimal accepts the numeric shapes a JSON decoder or a caller may produce.
// Floats go through their shortest decimal representation, so 99.99 stays 99.99.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case json.Number:
		return parseDecimal(string(val))
	case string:
		return parseDecimal(val)
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int8:
		return decimal.NewFromInt(int64(val)), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case uint:
		return parseDecimal(strconv.FormatUint(uint64(val), 10))
	case uint8:
		return decimal.NewFromInt(int64(val)), true
	case uint16:
		return decimal.NewFromInt(int64(val)), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	case uint64:
		return parseDecimal(strconv.FormatUint(val, 10))
	case float32:
		return fromFloat(float64(val), 32)
	case float64:
		return fromFloat(val, 64)
	default:
		return decimal.Zero, false
	}
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func fromFloat(f float64, bits int) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	if bits == 32 {
		return decimal.NewFromFloat32(float32(f)), true
	}
	return decimal.NewFromFloat(f), true
}

// Decimal exposes the numeric coercion used by MinorUnits.
func Decimal(v any) (decimal.Decimal, bool) {
	return toDecimal(v)
}

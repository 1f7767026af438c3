package normalize

import (
	"fmt"
	"math/big"
	"strconv"

	"lukechampine.com/uint128"

	"trianglearb/pkg"
)

// asString probes fields in priority order and returns the first present
// value coerced to a string. Raw pool records are shape-tolerant: numbers,
// json.Number, and strings are all accepted.
func asString(raw pkg.RawPool, fields ...string) string {
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case fmt.Stringer:
			return t.String()
		default:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}

func asFloat(raw pkg.RawPool, fields ...string) (float64, bool) {
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t, true
		case float32:
			return float64(t), true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		case uint64:
			return float64(t), true
		case string:
			if f64, err := strconv.ParseFloat(t, 64); err == nil {
				return f64, true
			}
		}
	}
	return 0, false
}

func asUint8(raw pkg.RawPool, field string) (uint8, bool) {
	f, ok := asFloat(raw, field)
	if !ok || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(f), true
}

func asUint32(raw pkg.RawPool, fields ...string) (uint32, bool) {
	f, ok := asFloat(raw, fields...)
	if !ok || f < 0 {
		return 0, false
	}
	return uint32(f), true
}

func asInt32(raw pkg.RawPool, fields ...string) (int32, bool) {
	f, ok := asFloat(raw, fields...)
	if !ok {
		return 0, false
	}
	return int32(f), true
}

// asUint128 probes fields in priority order for a non-negative integer too
// wide for a float64 round trip to preserve exactly (sqrt_price_x64 and
// liquidity are 128-bit on-chain quantities). String values are parsed via
// math/big so no precision is lost; numeric JSON values are widened from
// whatever Go type encoding/json produced them as.
func asUint128(raw pkg.RawPool, fields ...string) (uint128.Uint128, bool) {
	for _, f := range fields {
		v, ok := raw[f]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			bi, ok := new(big.Int).SetString(t, 10)
			if !ok || bi.Sign() < 0 || bi.BitLen() > 128 {
				continue
			}
			return uint128.FromBig(bi), true
		case uint64:
			return uint128.From64(t), true
		case int64:
			if t < 0 {
				continue
			}
			return uint128.From64(uint64(t)), true
		case int:
			if t < 0 {
				continue
			}
			return uint128.From64(uint64(t)), true
		case float64:
			if t < 0 {
				continue
			}
			bi, _ := big.NewFloat(t).Int(nil)
			if bi.BitLen() > 128 {
				continue
			}
			return uint128.FromBig(bi), true
		}
	}
	return uint128.Zero, false
}

func asUint16Ptr(raw pkg.RawPool, fields ...string) (*uint16, bool) {
	f, ok := asFloat(raw, fields...)
	if !ok || f < 0 || f > 65535 {
		return nil, false
	}
	v := uint16(f)
	return &v, true
}

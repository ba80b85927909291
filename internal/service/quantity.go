package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxQuantity bounds a single line so merges cannot overflow.
const MaxQuantity = math.MaxInt32

// ParseQuantity accepts values that already are numbers or strings holding
// a base-10 integer. The result must be strictly positive.
func ParseQuantity(v any) (int, error) {
	switch q := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(q), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidQuantity, q)
		}
		return checkQuantity(n)
	default:
		return NumericQuantity(v)
	}
}

// NumericQuantity is the strict variant used for bulk payloads: strings
// are rejected even when they hold digits.
func NumericQuantity(v any) (int, error) {
	switch q := v.(type) {
	case int:
		return checkQuantity(int64(q))
	case int32:
		return checkQuantity(int64(q))
	case int64:
		return checkQuantity(q)
	case float64:
		return floatQuantity(q)
	case json.Number:
		if n, err := q.Int64(); err == nil {
			return checkQuantity(n)
		}
		f, err := q.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidQuantity, q.String())
		}
		return floatQuantity(f)
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidQuantity)
	default:
		return 0, fmt.Errorf("%w: unsupported value %v", ErrInvalidQuantity, v)
	}
}

func floatQuantity(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > MaxQuantity {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuantity, f)
	}
	return checkQuantity(int64(f))
}

func checkQuantity(n int64) (int, error) {
	if n <= 0 || n > MaxQuantity {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuantity, n)
	}
	return int(n), nil
}

package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

// ParseQuantity resolves raw request input into a positive integer quantity.
// Integral JSON numbers and integer strings are accepted; anything else fails validation.
func ParseQuantity(raw any) (int, error) {
	var qty int64
	switch v := raw.(type) {
	case int:
		qty = int64(v)
	case int32:
		qty = int64(v)
	case int64:
		qty = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, invalidQuantity()
		}
		qty = int64(v)
	case json.Number:
		parsed, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, invalidQuantity()
			}
			return ParseQuantity(f)
		}
		qty = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, invalidQuantity()
		}
		qty = parsed
	default:
		return 0, invalidQuantity()
	}
	return validQuantity(qty)
}

func validQuantity(qty int64) (int, error) {
	if qty < 1 || qty > math.MaxInt32 {
		return 0, invalidQuantity()
	}
	return int(qty), nil
}

func invalidQuantity() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive whole number")
}

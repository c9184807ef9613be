package cart

import (
	"encoding/json"
	"testing"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

func TestParseQuantity(t *testing.T) {
	valid := []struct {
		raw  any
		want int
	}{
		{2, 2},
		{float64(3), 3},
		{json.Number("4"), 4},
		{json.Number("3.0"), 3},
		{" 5 ", 5},
		{int64(1), 1},
	}
	for _, tt := range valid {
		got, err := ParseQuantity(tt.raw)
		if err != nil {
			t.Fatalf("ParseQuantity(%v) unexpected error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("ParseQuantity(%v) = %d, want %d", tt.raw, got, tt.want)
		}
	}

	invalid := []any{0, -1, 1.5, json.Number("2.5"), "abc", "", "0", nil, true, float64(-3)}
	for _, raw := range invalid {
		if _, err := ParseQuantity(raw); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("ParseQuantity(%v) expected validation error, got %v", raw, err)
		}
	}
}

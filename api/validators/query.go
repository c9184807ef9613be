package validators

import (
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

// QueryInt reads an optional bounded integer. present is false when the key is absent.
func QueryInt(query url.Values, key string, min, max int) (value int, present bool, err error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return 0, false, nil
	}
	value, err = strconv.Atoi(raw)
	if err != nil {
		return 0, true, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, true, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, true, nil
}

// ForwardQuery copies query parameters for an upstream call, sanitizing every value and
// leaving out the keys that only mean something to this service.
func ForwardQuery(query url.Values, maxLen int, local ...string) url.Values {
	skip := make(map[string]struct{}, len(local))
	for _, key := range local {
		skip[key] = struct{}{}
	}
	out := url.Values{}
	for key, values := range query {
		if _, ok := skip[key]; ok {
			continue
		}
		for _, v := range values {
			if cleaned := SanitizeString(v, maxLen); cleaned != "" {
				out.Add(key, cleaned)
			}
		}
	}
	return out
}

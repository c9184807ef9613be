// Package enums holds the string enums persisted in the database or sent on the wire.
package enums

import (
	"fmt"
	"slices"
)

// parse matches value exactly against the known members of an enum.
func parse[T ~string](kind string, known []T, value string) (T, error) {
	if v := T(value); slices.Contains(known, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

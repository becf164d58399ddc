package utils

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of m in ascending or descending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V, asc bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if !asc {
		slices.Reverse(keys)
	}
	return keys
}

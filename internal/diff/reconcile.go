package diff

import (
	"maps"
	"slices"
)

// reconcileFuncs receives one callback per key in the union of the two
// sides. Comparators emit their own differences from these; missing
// entities are conventionally FAIL and extra ones WARNING, since an
// addition is never as severe as an absence.
type reconcileFuncs[T any] struct {
	onMissing func(key string, baseline T)
	onExtra   func(key string, current T)
	onMatch   func(key string, baseline, current T)
}

// reconcile partitions two keyed collections into missing, extra, and
// matched keys. The union is walked in sorted order so repeat runs over
// identical input produce identical difference ordering.
func reconcile[T any](baseline, current []T, key func(T) string, fns reconcileFuncs[T]) {
	baselineByKey := keyBy(baseline, key)
	currentByKey := keyBy(current, key)

	union := make(map[string]struct{}, len(baselineByKey)+len(currentByKey))
	for k := range baselineByKey {
		union[k] = struct{}{}
	}
	for k := range currentByKey {
		union[k] = struct{}{}
	}

	for _, k := range slices.Sorted(maps.Keys(union)) {
		baseVal, inBaseline := baselineByKey[k]
		currVal, inCurrent := currentByKey[k]

		switch {
		case inBaseline && !inCurrent:
			if fns.onMissing != nil {
				fns.onMissing(k, baseVal)
			}
		case !inBaseline && inCurrent:
			if fns.onExtra != nil {
				fns.onExtra(k, currVal)
			}
		default:
			if fns.onMatch != nil {
				fns.onMatch(k, baseVal, currVal)
			}
		}
	}
}

// keyBy builds a key→value map. On duplicate keys the last entry wins,
// matching how collectors overwrite repeated records.
func keyBy[T any](items []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, item := range items {
		m[key(item)] = item
	}

	return m
}

func sortedKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

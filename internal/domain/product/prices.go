package product

import "slices"

// PriceMap indexes price entries by Key.
type PriceMap map[string]PriceEntry

// NewPriceMap builds a PriceMap from repository rows.
func NewPriceMap(entries []PriceEntry) PriceMap {
	m := make(PriceMap, len(entries))
	for _, e := range entries {
		m[Key(e.ProductID, e.Size)] = e
	}
	return m
}

// Lookup returns the entry for a (product, size) pair.
func (m PriceMap) Lookup(productID int64, size string) (PriceEntry, bool) {
	e, ok := m[Key(productID, size)]
	return e, ok
}

// UniqueIDs returns ids without duplicates, in first-seen order.
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return slices.Clip(out)
}

package cart

// Merge folds incoming into existing by identity key. Quantities of matching
// entries are summed once per incoming item; unmatched items are appended in
// arrival order. Neither input slice is modified. A sum above MaxQuantity is
// rejected with *InvalidItemError.
func Merge(existing, incoming []Item) ([]Item, error) {
	out := make([]Item, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	add := func(it Item) error {
		pos, ok := index[it.Key()]
		if !ok {
			index[it.Key()] = len(out)
			out = append(out, it)
			return nil
		}
		cur := out[pos].Quantity
		if cur > MaxQuantity || it.Quantity > MaxQuantity-cur {
			return &InvalidItemError{ProductID: it.ProductID, Size: it.Size, Reason: quantityLimitReason}
		}
		out[pos].Quantity = cur + it.Quantity
		return nil
	}

	// Stored duplicates come from documents written before keys were
	// enforced; they are folded here.
	for _, it := range existing {
		if err := add(it); err != nil {
			return nil, err
		}
	}
	for _, it := range incoming {
		if err := add(it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Apply sets the quantity of item's entry: a positive quantity overwrites or
// appends, a non-positive one removes. Every stored entry with the same key
// is replaced by the single result. The boolean reports whether the result
// differs from items.
func Apply(items []Item, item Item) ([]Item, bool) {
	out := make([]Item, 0, len(items)+1)
	found := false
	for _, it := range items {
		if it.Key() != item.Key() {
			out = append(out, it)
			continue
		}
		if !found && item.Quantity > 0 {
			out = append(out, item)
		}
		found = true
	}

	if !found {
		if item.Quantity <= 0 {
			return items, false
		}
		out = append(out, item)
	}
	return out, true
}

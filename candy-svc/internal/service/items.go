package service

import (
	"fmt"
	"sort"

	"candy-stand/candy-svc/internal/domain"
)

type lineItem struct {
	key      domain.ItemKey
	name     string
	quantity int
}

// resolveItems validates a cart and merges lines that resolve to the same key.
func resolveItems(items []domain.ItemRequest) ([]lineItem, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}

	resolved := make([]lineItem, 0, len(items))
	index := make(map[domain.ItemKey]int, len(items))
	for _, item := range items {
		key, err := domain.ResolveItemKey(item.ID, item.Name)
		if err != nil {
			return nil, err
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("quantity for %s must be positive", key))
		}
		if i, ok := index[key]; ok {
			resolved[i].quantity += item.Quantity
			continue
		}
		name := item.Name
		if name == "" {
			name = string(key)
		}
		index[key] = len(resolved)
		resolved = append(resolved, lineItem{key: key, name: name, quantity: item.Quantity})
	}
	return resolved, nil
}

func keysOf(items []lineItem) []domain.ItemKey {
	keys := make([]domain.ItemKey, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func orderItemsOf(items []lineItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, domain.OrderItem{Key: item.key, Name: item.name, Quantity: item.quantity})
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// KeysToCopy lists the well-known keys plus every per-tenant table layout.
// The signal key is left out; it only matters to live listeners.
func KeysToCopy(ctx context.Context, src store.Store) ([]string, error) {
	keys := []string{store.KeyRestaurants, store.KeyOrders}
	lister, ok := src.(store.KeyLister)
	if !ok {
		return keys, nil
	}
	tables, err := lister.Keys(ctx, store.KeyTablesPrefix)
	if err != nil {
		return nil, err
	}
	return append(keys, tables...), nil
}

// Copy writes every present key of src into dst, skipping keys that were
// never written.
func Copy(ctx context.Context, src, dst store.Store, keys []string) (int, error) {
	var count int
	for _, k := range keys {
		v, err := src.Get(ctx, k)
		if err != nil {
			return count, fmt.Errorf("read %s: %w", k, err)
		}
		if v == nil {
			continue
		}
		if err := dst.Set(ctx, k, v); err != nil {
			return count, fmt.Errorf("write %s: %w", k, err)
		}
		count++
		log.Printf("migrated %s (%d bytes)", k, len(v))
	}
	return count, nil
}

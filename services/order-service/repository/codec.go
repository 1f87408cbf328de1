package repository

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// readJSON decodes the value under key into dst. A missing key leaves dst
// untouched. Store failures and undecodable values are both reported as
// storage unavailable.
func readJSON(ctx context.Context, st store.Store, key string, dst any) error {
	raw, err := st.Get(ctx, key)
	if err != nil {
		return apperrors.StorageUnavailable(err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.StorageUnavailable(fmt.Errorf("corrupt value under %s: %w", key, err))
	}
	return nil
}

func writeJSON(ctx context.Context, st store.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := st.Set(ctx, key, raw); err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

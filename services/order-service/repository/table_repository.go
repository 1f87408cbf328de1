package repository

import (
	"context"
	"fmt"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// TableRepository stores each tenant's table layout.
type TableRepository interface {
	List(ctx context.Context, restaurantID string) ([]models.RestaurantTable, error)
	Save(ctx context.Context, restaurantID string, tables []models.RestaurantTable) error
}

type StoreTableRepository struct {
	store store.Store
}

func NewStoreTableRepository(st store.Store) TableRepository {
	return &StoreTableRepository{store: st}
}

func (r *StoreTableRepository) List(ctx context.Context, restaurantID string) ([]models.RestaurantTable, error) {
	var tables []models.RestaurantTable
	if err := readJSON(ctx, r.store, store.TablesKey(restaurantID), &tables); err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []models.RestaurantTable{}
	}
	return tables, nil
}

// Save validates and stores a layout. Occupancy is not persisted: every
// table is written as available unless it is reserved.
func (r *StoreTableRepository) Save(ctx context.Context, restaurantID string, tables []models.RestaurantTable) error {
	normalized, err := NormalizeLayout(tables)
	if err != nil {
		return err
	}
	return writeJSON(ctx, r.store, store.TablesKey(restaurantID), normalized)
}

// NormalizeLayout checks table numbers are positive and unique, fills missing
// ids and drops derived occupancy.
func NormalizeLayout(tables []models.RestaurantTable) ([]models.RestaurantTable, error) {
	seenNumbers := make(map[int]bool, len(tables))
	seenIDs := make(map[string]bool, len(tables))
	out := make([]models.RestaurantTable, 0, len(tables))

	for _, t := range tables {
		if t.Number <= 0 {
			return nil, apperrors.Validationf("table number must be positive, got %d", t.Number)
		}
		if t.Capacity < 0 {
			return nil, apperrors.Validationf("table %d has negative capacity", t.Number)
		}
		if seenNumbers[t.Number] {
			return nil, apperrors.Validationf("duplicate table number %d", t.Number)
		}
		seenNumbers[t.Number] = true

		if t.ID == "" {
			t.ID = fmt.Sprintf("table-%d", t.Number)
		}
		if seenIDs[t.ID] {
			return nil, apperrors.Validationf("duplicate table id %s", t.ID)
		}
		seenIDs[t.ID] = true

		if t.Status != models.TableStatusReserved {
			t.Status = models.TableStatusAvailable
		}
		t.CurrentOrder = ""
		out = append(out, t)
	}
	return out, nil
}

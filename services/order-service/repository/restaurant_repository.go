package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

// RestaurantRepository manages the tenant registry.
type RestaurantRepository interface {
	List(ctx context.Context) ([]models.Restaurant, error)
	// Get returns nil, nil when the tenant does not exist.
	Get(ctx context.Context, id string) (*models.Restaurant, error)
	Add(ctx context.Context, r *models.Restaurant) error
	// Update returns nil, nil when the tenant does not exist.
	Update(ctx context.Context, id string, fn func(*models.Restaurant)) (*models.Restaurant, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// storedRestaurant keeps attributes this service does not model (admin
// credentials written by the login flow) so a rewrite does not drop them.
type storedRestaurant struct {
	models.Restaurant
	extra map[string]json.RawMessage
}

func (s *storedRestaurant) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &s.Restaurant); err != nil {
		return err
	}
	return json.Unmarshal(b, &s.extra)
}

func (s storedRestaurant) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(s.Restaurant)
	if err != nil {
		return nil, err
	}
	if len(s.extra) == 0 {
		return known, nil
	}
	merged := make(map[string]json.RawMessage, len(s.extra))
	for k, v := range s.extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

type StoreRestaurantRepository struct {
	store store.Store
}

func NewStoreRestaurantRepository(st store.Store) RestaurantRepository {
	return &StoreRestaurantRepository{store: st}
}

func (r *StoreRestaurantRepository) load(ctx context.Context) ([]storedRestaurant, error) {
	var all []storedRestaurant
	if err := readJSON(ctx, r.store, store.KeyRestaurants, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *StoreRestaurantRepository) List(ctx context.Context) ([]models.Restaurant, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Restaurant, 0, len(all))
	for _, s := range all {
		out = append(out, s.Restaurant)
	}
	return out, nil
}

func (r *StoreRestaurantRepository) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range all {
		if s.ID == id {
			found := s.Restaurant
			return &found, nil
		}
	}
	return nil, nil
}

func (r *StoreRestaurantRepository) Add(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant == nil || restaurant.ID == "" || restaurant.Name == "" {
		return apperrors.Validationf("restaurant id and name are required")
	}
	all, err := r.load(ctx)
	if err != nil {
		return err
	}
	for _, s := range all {
		if s.ID == restaurant.ID {
			return apperrors.Validationf("restaurant %s already exists", restaurant.ID)
		}
	}
	all = append(all, storedRestaurant{Restaurant: *restaurant})
	return writeJSON(ctx, r.store, store.KeyRestaurants, all)
}

func (r *StoreRestaurantRepository) Update(ctx context.Context, id string, fn func(*models.Restaurant)) (*models.Restaurant, error) {
	all, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID != id {
			continue
		}
		fn(&all[i].Restaurant)
		all[i].ID = id
		if err := writeJSON(ctx, r.store, store.KeyRestaurants, all); err != nil {
			return nil, err
		}
		updated := all[i].Restaurant
		return &updated, nil
	}
	return nil, nil
}

func (r *StoreRestaurantRepository) Delete(ctx context.Context, id string) (bool, error) {
	all, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	kept := all[:0]
	for _, s := range all {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	return true, writeJSON(ctx, r.store, store.KeyRestaurants, kept)
}

// Package seed loads demo tenants and table layouts into an empty store.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/repository"
)

//go:embed default.yaml
var defaultData []byte

type Table struct {
	Number   int                `yaml:"number"`
	Capacity int                `yaml:"capacity"`
	Status   models.TableStatus `yaml:"status"`
}

type Restaurant struct {
	models.Restaurant `yaml:",inline"`
	TableCount        int     `yaml:"tableCount"`
	Layout            []Table `yaml:"layout"`
}

type Data struct {
	Restaurants []Restaurant `yaml:"restaurants"`
}

// Default returns the built-in demo data.
func Default() (*Data, error) {
	return Parse(defaultData)
}

// Load reads seed data from a YAML file.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	for i, r := range d.Restaurants {
		if r.ID == "" || r.Name == "" {
			return nil, fmt.Errorf("seed restaurant %d: id and name are required", i)
		}
	}
	return &d, nil
}

// TableLayout expands the restaurant's layout, generating tableCount tables of
// four seats when no explicit layout is given.
func (r Restaurant) TableLayout() []models.RestaurantTable {
	if len(r.Layout) > 0 {
		out := make([]models.RestaurantTable, 0, len(r.Layout))
		for _, t := range r.Layout {
			out = append(out, models.RestaurantTable{Number: t.Number, Capacity: t.Capacity, Status: t.Status})
		}
		return out
	}
	out := make([]models.RestaurantTable, 0, r.TableCount)
	for n := 1; n <= r.TableCount; n++ {
		out = append(out, models.RestaurantTable{Number: n, Capacity: 4})
	}
	return out
}

// Apply adds restaurants that do not exist yet and writes layouts for
// tenants that have none. Existing data is never overwritten.
func Apply(ctx context.Context, d *Data, restaurants repository.RestaurantRepository, tables repository.TableRepository, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, r := range d.Restaurants {
		existing, err := restaurants.Get(ctx, r.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			tenant := r.Restaurant
			if tenant.Status == "" {
				tenant.Status = models.RestaurantStatusActive
			}
			if err := restaurants.Add(ctx, &tenant); err != nil {
				return err
			}
			logger.Info("Seeded restaurant", zap.String("restaurant_id", r.ID))
		}

		layout, err := tables.List(ctx, r.ID)
		if err != nil {
			return err
		}
		if len(layout) > 0 {
			continue
		}
		generated := r.TableLayout()
		if len(generated) == 0 {
			continue
		}
		if err := tables.Save(ctx, r.ID, generated); err != nil {
			return fmt.Errorf("seed tables for %s: %w", r.ID, err)
		}
		logger.Info("Seeded table layout", zap.String("restaurant_id", r.ID), zap.Int("tables", len(generated)))
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/common/logger"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/repository"
)

// RestaurantService manages tenants and their table layouts.
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	tables      repository.TableRepository
	boards      *BoardService
	now         func() time.Time
}

func NewRestaurantService(restaurants repository.RestaurantRepository, tables repository.TableRepository, boards *BoardService) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		tables:      tables,
		boards:      boards,
		now:         time.Now,
	}
}

func (s *RestaurantService) List(ctx context.Context) ([]models.Restaurant, error) {
	return s.restaurants.List(ctx)
}

func (s *RestaurantService) Get(ctx context.Context, id string) (*models.Restaurant, error) {
	r, err := s.restaurants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperrors.NotFound("restaurant " + id)
	}
	return r, nil
}

// Create registers a tenant. A missing id is generated as "rest" plus four
// digits.
func (s *RestaurantService) Create(ctx context.Context, req *models.CreateRestaurantRequest) (*models.Restaurant, error) {
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("rest%d", 1000+rand.IntN(9000))
	}
	r := &models.Restaurant{
		ID:        id,
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		Email:     req.Email,
		Tables:    req.Tables,
		Status:    models.RestaurantStatusActive,
		CreatedAt: models.NowISO(s.now()),
	}
	if err := s.restaurants.Add(ctx, r); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Restaurant created", zap.String("restaurant_id", r.ID))
	return r, nil
}

func (s *RestaurantService) Update(ctx context.Context, id string, req *models.UpdateRestaurantRequest) (*models.Restaurant, error) {
	r, err := s.restaurants.Update(ctx, id, req.Apply)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperrors.NotFound("restaurant " + id)
	}
	logger.Info(ctx, "Restaurant updated", zap.String("restaurant_id", id))
	return r, nil
}

func (s *RestaurantService) Delete(ctx context.Context, id string) error {
	removed, err := s.restaurants.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperrors.NotFound("restaurant " + id)
	}
	if s.boards != nil {
		s.boards.Drop(id)
	}
	logger.Info(ctx, "Restaurant deleted", zap.String("restaurant_id", id))
	return nil
}

func (s *RestaurantService) Tables(ctx context.Context, id string) ([]models.RestaurantTable, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.tables.List(ctx, id)
}

// SaveTables stores a layout and refreshes a running board.
func (s *RestaurantService) SaveTables(ctx context.Context, id string, tables []models.RestaurantTable) ([]models.RestaurantTable, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.tables.Save(ctx, id, tables); err != nil {
		return nil, err
	}
	if s.boards != nil {
		if err := s.boards.ReloadTables(ctx, id); err != nil {
			logger.Warn(ctx, "Failed to reload board tables", zap.String("restaurant_id", id), zap.Error(err))
		}
	}
	return s.tables.List(ctx, id)
}

// Package archive exports a tenant's order ledger to S3.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/models"
)

type S3Archiver struct {
	client awspkg.ObjectPutter
	bucket string
	logger *zap.Logger
	now    func() time.Time
}

func NewS3Archiver(client awspkg.ObjectPutter, bucket string, logger *zap.Logger) *S3Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Archiver{client: client, bucket: bucket, logger: logger, now: time.Now}
}

// ObjectKey is orders/<restaurantId>/<yyyy-mm-dd>/<unix>.json.
func ObjectKey(restaurantID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("orders/%s/%s/%d.json", restaurantID, at.Format("2006-01-02"), at.Unix())
}

// ExportTenant uploads orders and returns the object key.
func (a *S3Archiver) ExportTenant(ctx context.Context, restaurantID string, orders []models.Order) (string, error) {
	if orders == nil {
		orders = []models.Order{}
	}
	body, err := json.Marshal(orders)
	if err != nil {
		return "", fmt.Errorf("encode orders: %w", err)
	}

	key := ObjectKey(restaurantID, a.now())
	if err := awspkg.PutJSON(ctx, a.client, a.bucket, key, body); err != nil {
		return "", err
	}
	a.logger.Info("Orders exported",
		zap.String("restaurant_id", restaurantID),
		zap.String("bucket", a.bucket),
		zap.String("key", key),
		zap.Int("orders", len(orders)))
	return key, nil
}

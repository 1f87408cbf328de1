package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
)

// RestaurantParam is the route parameter that names the tenant.
const RestaurantParam = "restaurantId"

// MetricsMiddleware records request count, latency and error class per
// route. Tenant routes also carry a RestaurantID dimension.
func MetricsMiddleware(metricsClient *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		dimensions := requestDimensions(c, serviceName)
		counts := statusMetrics(c.Writer.Status())

		// Recorded off the request goroutine.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metricsClient.RecordLatency(ctx, awspkg.MetricHTTPLatency, duration, dimensions)
			for _, name := range counts {
				_ = metricsClient.RecordCount(ctx, name, dimensions)
			}
		}()
	}
}

// requestDimensions must run after the handler so the status is final.
func requestDimensions(c *gin.Context, serviceName string) map[string]string {
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	dimensions := map[string]string{
		"Service": serviceName,
		"Method":  c.Request.Method,
		"Path":    path,
		"Status":  statusCodeToRange(c.Writer.Status()),
	}
	if rid := c.Param(RestaurantParam); rid != "" {
		dimensions["RestaurantID"] = rid
	}
	return dimensions
}

// statusMetrics lists the counters one response increments.
func statusMetrics(statusCode int) []string {
	names := []string{awspkg.MetricHTTPRequests}
	switch {
	case statusCode >= 500:
		names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx)
	case statusCode >= 400:
		names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx)
	}
	return names
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

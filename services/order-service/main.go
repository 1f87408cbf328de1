package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	awspkg "github.com/BeckerFac/restaurant-ordering/pkg/aws"
	apperrors "github.com/BeckerFac/restaurant-ordering/services/common/errors"
	"github.com/BeckerFac/restaurant-ordering/services/common/logger"
	"github.com/BeckerFac/restaurant-ordering/services/common/middleware"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/archive"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/controllers"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/notify"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/relay"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/repository"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/routes"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/seed"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/services"
	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

const serviceName = "order-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("[OrderService] failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// AWS is optional; every client below degrades to disabled without it.
	awsCfg, awsErr := awspkg.LoadAWSConfig(ctx)

	if cfg.LogGroup != "" && awsErr == nil {
		if cw, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.LogGroup, serviceName); err == nil {
			logger.InitializeWithWriter(cfg.Environment, cw)
		} else {
			logger.Initialize(cfg.Environment)
			logger.Log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		}
	} else {
		logger.Initialize(cfg.Environment)
	}
	zlog := logger.Log
	defer zlog.Sync()

	var metrics *awspkg.MetricsClient
	if awsErr == nil {
		metrics = awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	}

	st, err := store.Open(ctx, cfg.Store, zlog)
	if err != nil {
		zlog.Fatal("failed to open store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer st.Close()

	rel, err := relay.Open(ctx, cfg.Relay, zlog)
	if err != nil {
		zlog.Fatal("failed to open relay", zap.String("kind", cfg.Relay.Kind), zap.Error(err))
	}
	defer rel.Close()

	busOpts := []notify.Option{notify.WithMetrics(metrics)}
	if rel != nil {
		busOpts = append(busOpts, notify.WithMirror(rel.Sink))
	}
	bus := notify.NewBus(st, zlog, busOpts...)

	orderRepo := repository.NewStoreOrderRepository(st)
	restaurantRepo := repository.NewStoreRestaurantRepository(st)
	tableRepo := repository.NewStoreTableRepository(st)

	if cfg.SeedEnabled {
		data, err := loadSeed(cfg.SeedFile)
		if err != nil {
			zlog.Fatal("failed to load seed data", zap.Error(err))
		}
		if err := seed.Apply(ctx, data, restaurantRepo, tableRepo, zlog); err != nil {
			zlog.Warn("seeding skipped", zap.Error(err))
		}
	}

	orderSvc := services.NewOrderService(orderRepo, restaurantRepo, bus, metrics, zlog)
	boardSvc := services.NewBoardService(orderSvc, tableRepo, cfg.PollInterval, zlog)
	defer boardSvc.Close()
	restaurantSvc := services.NewRestaurantService(restaurantRepo, tableRepo, boardSvc)

	var archiver controllers.Archiver
	if cfg.ArchiveBucket != "" && awsErr == nil {
		archiver = archive.NewS3Archiver(awspkg.NewS3Client(awsCfg), cfg.ArchiveBucket, zlog)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		logger.RequestLogger(zlog),
		apperrors.ErrorMiddleware(),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.CORSOrigins),
		middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
		middleware.MetricsMiddleware(metrics, serviceName),
	)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	routes.RegisterOrderRoutes(r, routes.Controllers{
		Orders:      controllers.NewOrderController(orderSvc, restaurantSvc),
		Restaurants: controllers.NewRestaurantController(restaurantSvc),
		Boards:      controllers.NewBoardController(boardSvc, restaurantSvc, orderSvc, archiver),
		Events:      controllers.NewEventsController(orderSvc, restaurantSvc, cfg.PollInterval, zlog),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Run(gctx)
	})
	if rel != nil {
		g.Go(func() error {
			return rel.Source.Consume(gctx, bus.Inject)
		})
	}
	g.Go(func() error {
		zlog.Info("order service listening", zap.String("port", cfg.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zlog.Error("order service stopped with error", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("server shutdown complete")
}

func loadSeed(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Default()
	}
	return seed.Load(path)
}

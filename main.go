package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-delivery-backend/cache"
	"food-delivery-backend/config"
	"food-delivery-backend/events"
	"food-delivery-backend/handlers"
	"food-delivery-backend/middleware"
	"food-delivery-backend/routes"
	"food-delivery-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	logger.Info("database connected and migrated", zap.String("driver", cfg.DBDriver))

	deps := services.Deps{DB: db, Logger: logger}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		deps.Cache = cache.NewRedisCourierCache(client, cfg.CourierCacheTTL)
		logger.Info("courier cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CourierCacheTTL))
	}

	if cfg.AMQPURL != "" {
		pub, err := events.DialRabbit(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer pub.Close()
		deps.Publisher = pub
		logger.Info("order events enabled", zap.String("exchange", cfg.AMQPExchange))
	}

	users := services.NewUserService(deps)
	if cfg.AdminEmail != "" {
		admin, err := users.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		logger.Info("admin account ready", zap.Uint("user_id", admin.User.ID), zap.String("email", admin.User.Email))
	}

	tokens := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := handlers.New(handlers.Services{
		Orders:      services.NewOrderService(deps),
		Assignment:  services.NewAssignmentService(deps),
		Reviews:     services.NewReviewService(deps),
		Favorites:   services.NewFavoriteService(deps),
		Couriers:    services.NewCourierService(deps),
		Users:       users,
		Restaurants: services.NewRestaurantService(deps),
	}, tokens, logger)

	r := NewRouter(h, tokens, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine with middleware, health endpoints and API routes.
func NewRouter(h *handlers.Handler, tokens *middleware.TokenIssuer, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Delivery Order Management API",
			"version": "1.0.0",
		})
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Food Delivery Order Management API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"customer", "restaurant", "courier", "admin"},
		})
	})

	routes.SetupRoutes(r, h, tokens)
	return r
}

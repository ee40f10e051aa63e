// Package server boots the application: configuration, storage, cache,
// payment gateway, services and the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/madina/app/controllers"
	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/app/routes"
	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/config"
	"github.com/shashiranjanraj/madina/internal/paypal"
	"github.com/shashiranjanraj/madina/pkg/cache"
	"github.com/shashiranjanraj/madina/pkg/logger"
	"github.com/shashiranjanraj/madina/pkg/router"
	"github.com/shashiranjanraj/madina/pkg/storage"
)

const (
	cacheTTL        = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// App holds the assembled application. Boot builds it once; Start and the
// sweep command both run off the same wiring.
type App struct {
	Orders *services.OrderService

	db      *mongo.Client
	cache   cache.Cache
	handler http.Handler
}

// Boot loads configuration and wires every layer together.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := repositories.Connect(ctx, config.MongoURI(), config.MongoDB())
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	userRepo := repositories.NewUserRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	orderRepo := repositories.NewOrderRepository(db)

	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure user indexes: %w", err)
	}
	if err := deliveryRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure delivery indexes: %w", err)
	}

	store, err := connectCache()
	if err != nil {
		return nil, err
	}

	disk, err := storage.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	gateway := paypal.NewClient(config.PayPalMode(), config.PayPalClientID(), config.PayPalSecret())
	notifier := services.NewFulfillmentNotifier(disk, services.SMTPCodeSender{})

	confirmBase := strings.TrimRight(config.PayPalReturnBase(), "/") + config.APIPrefix()
	orderSvc := services.NewOrderService(orderRepo, userRepo, gateway, notifier,
		confirmBase+"/orders/confirm", confirmBase+"/orders/cancel")

	c := routes.Controllers{
		Users:      controllers.NewUserController(services.NewAuthService(userRepo)),
		Products:   controllers.NewProductController(services.NewProductService(productRepo, store)),
		Orders:     controllers.NewOrderController(orderSvc),
		Deliveries: controllers.NewDeliveryController(services.NewDeliveryService(deliveryRepo), orderSvc),
	}

	r := router.New()
	routes.RegisterAPI(r, c)

	return &App{
		Orders:  orderSvc,
		db:      db.Client(),
		cache:   store,
		handler: r.Handler(),
	}, nil
}

func connectCache() (cache.Cache, error) {
	if config.CacheDriver() == "redis" {
		store, err := cache.NewRedis(config.RedisAddr(), config.RedisPassword(), cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	}
	return cache.NewMemory(cacheTTL), nil
}

// Start runs the HTTP listener until the context is cancelled or a
// termination signal arrives, then drains connections.
func (a *App) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + config.AppPort(),
		Handler: a.handler,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server draining")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Close(context.Background())
	return err
}

// Close releases the database and cache connections.
func (a *App) Close(ctx context.Context) {
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("close cache", "error", err)
		}
	}
	if err := a.db.Disconnect(ctx); err != nil {
		logger.Warn("disconnect mongo", "error", err)
	}
}

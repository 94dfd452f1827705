package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/registerhq/register-backend/internal/auth/jwt"
	catalogevents "github.com/registerhq/register-backend/internal/catalog/events"
	cataloghandler "github.com/registerhq/register-backend/internal/catalog/handler"
	catalogrepo "github.com/registerhq/register-backend/internal/catalog/repository"
	catalogservice "github.com/registerhq/register-backend/internal/catalog/service"
	inventoryevents "github.com/registerhq/register-backend/internal/inventory/events"
	inventoryhandler "github.com/registerhq/register-backend/internal/inventory/handler"
	inventoryrepo "github.com/registerhq/register-backend/internal/inventory/repository"
	inventoryservice "github.com/registerhq/register-backend/internal/inventory/service"
	orderevents "github.com/registerhq/register-backend/internal/orders/events"
	orderhandler "github.com/registerhq/register-backend/internal/orders/handler"
	orderrepo "github.com/registerhq/register-backend/internal/orders/repository"
	orderservice "github.com/registerhq/register-backend/internal/orders/service"
	"github.com/registerhq/register-backend/pkg/config"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/httputil"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("register-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("register-api", cfg.Server.Environment)
	log.Info().Msg("starting Register API")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	catalogPublisher, err := catalogevents.NewCatalogEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create catalog event publisher")
	}
	inventoryPublisher, err := inventoryevents.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create inventory event publisher")
	}
	orderPublisher, err := orderevents.NewOrderEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create order event publisher")
	}

	// Repositories
	productRepo := catalogrepo.NewProductRepository(db)
	categoryRepo := catalogrepo.NewCategoryRepository(db)
	supplierRepo := catalogrepo.NewSupplierRepository(db)
	locationRepo := catalogrepo.NewLocationRepository(db)
	groupRepo := inventoryrepo.NewGroupRepository(db)
	itemRepo := inventoryrepo.NewItemRepository(db)
	tagRepo := inventoryrepo.NewTagRepository(db)
	movementRepo := inventoryrepo.NewMovementRepository(db)
	purchaseOrderRepo := orderrepo.NewOrderRepository(db)

	// Services
	catalogSvc := catalogservice.NewCatalogService(productRepo, categoryRepo, supplierRepo, locationRepo, catalogPublisher, log)
	inventorySvc := inventoryservice.NewInventoryService(db, groupRepo, itemRepo, tagRepo, movementRepo, inventoryPublisher, log)
	orderSvc := orderservice.NewOrderService(db, purchaseOrderRepo, orderPublisher, log)

	// Handlers
	productHandler := cataloghandler.NewProductHandler(catalogSvc, log)
	categoryHandler := cataloghandler.NewCategoryHandler(catalogSvc, log)
	supplierHandler := cataloghandler.NewSupplierHandler(catalogSvc, log)
	locationHandler := cataloghandler.NewLocationHandler(catalogSvc, log)
	groupHandler := inventoryhandler.NewGroupHandler(inventorySvc, log)
	itemHandler := inventoryhandler.NewItemHandler(inventorySvc, log)
	movementHandler := inventoryhandler.NewMovementHandler(inventorySvc, log)
	tagHandler := inventoryhandler.NewTagHandler(inventorySvc, log)
	purchaseOrderHandler := orderhandler.NewOrderHandler(orderSvc, log)

	jwtManager := jwt.NewManager(&cfg.JWT)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "register-api",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Authenticator(jwtManager))

		r.Route("/products", func(r chi.Router) {
			r.With(httputil.RequirePermission("catalog.read")).Get("/", productHandler.List)
			r.With(httputil.RequirePermission("catalog.read")).Get("/{id}", productHandler.Get)
			r.With(httputil.RequirePermission("catalog.read")).Get("/sku/{sku}", productHandler.GetBySKU)
			r.With(httputil.RequirePermission("catalog.read")).Get("/barcode/{barcode}", productHandler.GetByBarcode)
			r.With(httputil.RequirePermission("catalog.write")).Post("/", productHandler.Create)
			r.With(httputil.RequirePermission("catalog.write")).Patch("/{id}", productHandler.Update)
			r.With(httputil.RequirePermission("catalog.write")).Delete("/{id}", productHandler.Delete)
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(httputil.RequirePermission("catalog.read")).Get("/", categoryHandler.List)
			r.With(httputil.RequirePermission("catalog.read")).Get("/{id}", categoryHandler.Get)
			r.With(httputil.RequirePermission("catalog.write")).Post("/", categoryHandler.Create)
			r.With(httputil.RequirePermission("catalog.write")).Patch("/{id}", categoryHandler.Update)
			r.With(httputil.RequirePermission("catalog.write")).Delete("/{id}", categoryHandler.Delete)
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.With(httputil.RequirePermission("catalog.read")).Get("/", supplierHandler.List)
			r.With(httputil.RequirePermission("catalog.read")).Get("/{id}", supplierHandler.Get)
			r.With(httputil.RequirePermission("catalog.write")).Post("/", supplierHandler.Create)
			r.With(httputil.RequirePermission("catalog.write")).Patch("/{id}", supplierHandler.Update)
			r.With(httputil.RequirePermission("catalog.write")).Delete("/{id}", supplierHandler.Delete)
		})

		r.Route("/locations", func(r chi.Router) {
			r.With(httputil.RequirePermission("catalog.read")).Get("/", locationHandler.List)
			r.With(httputil.RequirePermission("catalog.read")).Get("/{id}", locationHandler.Get)
			r.With(httputil.RequirePermission("catalog.write")).Post("/", locationHandler.Create)
			r.With(httputil.RequirePermission("catalog.write")).Patch("/{id}", locationHandler.Update)
			r.With(httputil.RequirePermission("catalog.write")).Delete("/{id}", locationHandler.Delete)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.With(httputil.RequirePermission("inventory.read")).Get("/low-stock", itemHandler.ListLowStock)

			r.Route("/groups", func(r chi.Router) {
				r.With(httputil.RequirePermission("inventory.read")).Get("/", groupHandler.List)
				r.With(httputil.RequirePermission("inventory.read")).Get("/{groupID}", groupHandler.Get)
				r.With(httputil.RequirePermission("inventory.write")).Post("/", groupHandler.Create)
				r.With(httputil.RequirePermission("inventory.write")).Patch("/{groupID}", groupHandler.Update)
				r.With(httputil.RequirePermission("inventory.write")).Delete("/{groupID}", groupHandler.Delete)

				r.Route("/{groupID}/items", func(r chi.Router) {
					r.With(httputil.RequirePermission("inventory.read")).Get("/", itemHandler.List)
					r.With(httputil.RequirePermission("inventory.read")).Get("/{id}", itemHandler.Get)
					r.With(httputil.RequirePermission("inventory.write")).Post("/", itemHandler.Create)
					r.With(httputil.RequirePermission("inventory.write")).Patch("/{id}", itemHandler.Update)
					r.With(httputil.RequirePermission("inventory.write")).Delete("/{id}", itemHandler.Delete)
				})
			})

			r.With(httputil.RequirePermission("inventory.write")).Post("/items/{id}/adjust", itemHandler.Adjust)

			r.Route("/movements", func(r chi.Router) {
				r.With(httputil.RequirePermission("inventory.read")).Get("/", movementHandler.List)
				r.With(httputil.RequirePermission("inventory.write")).Post("/", movementHandler.Create)
			})
		})

		r.Route("/tags", func(r chi.Router) {
			r.With(httputil.RequirePermission("inventory.read")).Get("/", tagHandler.List)
			r.With(httputil.RequirePermission("inventory.write")).Post("/", tagHandler.Resolve)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(httputil.RequirePermission("orders.read")).Get("/", purchaseOrderHandler.List)
			r.With(httputil.RequirePermission("orders.read")).Get("/{id}", purchaseOrderHandler.Get)
			r.With(httputil.RequirePermission("orders.write")).Post("/", purchaseOrderHandler.Create)
			r.With(httputil.RequirePermission("orders.write")).Patch("/{id}", purchaseOrderHandler.Update)
			r.With(httputil.RequirePermission("orders.write")).Put("/{id}/status", purchaseOrderHandler.UpdateStatus)
			r.With(httputil.RequirePermission("orders.write")).Post("/{id}/items", purchaseOrderHandler.AddItem)
			r.With(httputil.RequirePermission("orders.write")).Delete("/{id}/items/{itemID}", purchaseOrderHandler.RemoveItem)
			r.With(httputil.RequirePermission("orders.write")).Delete("/{id}", purchaseOrderHandler.Delete)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

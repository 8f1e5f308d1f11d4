package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"library/internal/config"
	"library/internal/handlers"
	"library/internal/models"
	"library/internal/payment"
	"library/internal/repositories"
	"library/internal/services"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get generic DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.AutoMigrate(&models.Book{}, &models.BorrowRecord{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	store := repositories.NewCatalogStore(db)
	circulation := services.NewCirculationService(store)

	// The default gateway is decided here, not inside the service.
	gatewayCfg := cfg.Gateway
	newGateway := func() payment.Gateway {
		return payment.NewSimulatedGatewayWithLatency(
			gatewayCfg.APIKey,
			gatewayCfg.ProcessLatency(),
			gatewayCfg.RefundLatency(),
		)
	}
	payments := services.NewPaymentService(store, circulation, newGateway)

	router := gin.Default()
	handlers.RegisterRoutes(router, circulation, payments, newGateway())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

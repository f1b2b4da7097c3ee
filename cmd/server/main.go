package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/glowsalon/booking-backend/internal/config"
	"github.com/glowsalon/booking-backend/internal/es"
	"github.com/glowsalon/booking-backend/internal/events"
	"github.com/glowsalon/booking-backend/internal/guestcart"
	"github.com/glowsalon/booking-backend/internal/httpserver"
	"github.com/glowsalon/booking-backend/internal/logging"
	"github.com/glowsalon/booking-backend/internal/paymentclient"
	"github.com/glowsalon/booking-backend/internal/repo"
	"github.com/glowsalon/booking-backend/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(httpserver.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	guests, err := guestcart.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	}

	r := &repo.GormRepo{DB: db}

	cartService := service.NewCartService(r, guests)
	discountService := service.NewDiscountService(r)
	referralService := service.NewReferralService(r, cfg.PointsPerReferral, cfg.PointsPerBooking)
	catalogService := service.NewCatalogService(r, esClient, cfg.ESIndex)

	var publisher service.EventPublisher
	if producer != nil {
		publisher = producer
	}
	checkoutService := service.NewCheckoutService(
		cartService,
		discountService,
		referralService,
		r,
		paymentclient.NewClient(cfg.PaymentURL),
		publisher,
	)

	httpserver.Register(e, &httpserver.Deps{
		DiscountHandler:    &httpserver.DiscountHTTP{Svc: discountService},
		ReferralHandler:    &httpserver.ReferralHTTP{Svc: referralService},
		CartHandler:        &httpserver.CartHTTP{Svc: cartService},
		CheckoutHandler:    &httpserver.CheckoutHTTP{Svc: checkoutService},
		CatalogHandler:     &httpserver.CatalogHTTP{Svc: catalogService},
		MaintenanceHandler: &httpserver.MaintenanceHTTP{Cart: cartService},
		JWTSecret:          cfg.JWTSecret,
	})

	go func() {
		logger.Info("starting server", "service", cfg.ServiceName, "port", cfg.ServerPort)
		if err := e.Start(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/minhtran-dev/fulfillment-service/internal/address"
	"github.com/minhtran-dev/fulfillment-service/internal/config"
	"github.com/minhtran-dev/fulfillment-service/internal/courier"
	"github.com/minhtran-dev/fulfillment-service/internal/db"
	"github.com/minhtran-dev/fulfillment-service/internal/fulfillment"
	"github.com/minhtran-dev/fulfillment-service/internal/location"
	"github.com/minhtran-dev/fulfillment-service/internal/payment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipment"
	"github.com/minhtran-dev/fulfillment-service/internal/shipping"
	"github.com/minhtran-dev/fulfillment-service/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "fulfillment-service").Logger()

	log.Info().Msg("Fulfillment service starting...")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	postgres, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close()

	directory := location.NewDirectory(
		location.NewFallbackSource(
			location.NewHTTPSource(cfg.Locations.BaseURL, cfg.Locations.Timeout),
		),
	)

	addressSvc := address.NewService(address.NewRepository(postgres.Pool), directory)
	estimator := shipping.NewEstimator(location.RegionOfLocality)

	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	courierClient := courier.NewHTTPClient(cfg.Courier.BaseURL, cfg.Courier.Token, cfg.Courier.Timeout)

	pickup := courier.Pickup{
		Name:  cfg.Pickup.Name,
		Phone: cfg.Pickup.Phone,
		Line:  cfg.Pickup.Line,
		Lat:   cfg.Pickup.Lat,
		Lon:   cfg.Pickup.Lon,
	}

	fulfillmentSvc := fulfillment.NewService(
		fulfillment.NewRepository(postgres.Pool),
		addressSvc,
		gateway,
		courierClient,
		pickup,
		cfg.App.ReturnURL,
	)

	router := transport.NewRouter(transport.Deps{
		Directory:   directory,
		Addresses:   addressSvc,
		Estimator:   estimator,
		Fulfillment: fulfillmentSvc,
		Tracker:     shipment.NewTracker(courierClient),
		Origin:      shipping.Point{Lat: cfg.Pickup.Lat, Lon: cfg.Pickup.Lon},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

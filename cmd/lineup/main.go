package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghamdiff/Line-UP/internal/config"
	"github.com/ghamdiff/Line-UP/internal/httpapi"
	"github.com/ghamdiff/Line-UP/internal/seed"
	"github.com/ghamdiff/Line-UP/internal/store"
	"github.com/ghamdiff/Line-UP/internal/store/memory"
	"github.com/ghamdiff/Line-UP/internal/store/postgres"
	"github.com/ghamdiff/Line-UP/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()
	shutdownTelemetry := telemetry.Setup("lineup")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	var reservations store.ReservationStore
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		reservations = postgres.NewStore(pool, postgres.Options{
			ReleaseOnExit:         cfg.ReleaseOnExit,
			ServiceMinutesPerUnit: cfg.ServiceMinutesPerUnit,
		})
	} else {
		memStore := memory.NewStore(memory.Options{
			ReleaseOnExit:         cfg.ReleaseOnExit,
			ServiceMinutesPerUnit: cfg.ServiceMinutesPerUnit,
		})
		if cfg.SeedDemoData {
			seed.Demo(memStore)
		}
		reservations = memStore
	}

	handler := httpapi.NewHandler(reservations)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:   cfg.RateLimitPerMinute,
		IPBurst:       cfg.RateLimitBurst,
		UserPerMinute: cfg.UserRateLimitPerMinute,
		UserBurst:     cfg.UserRateLimitBurst,
	})

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(limiter.Middleware(handler.Routes())), "lineup")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("lineup listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studyhall/internal/absence"
	"studyhall/internal/admission"
	"studyhall/internal/attendance"
	"studyhall/internal/booking"
	"studyhall/internal/config"
	"studyhall/internal/httpapi"
	"studyhall/internal/httpmiddleware"
	"studyhall/internal/lock"
	"studyhall/internal/notify"
	"studyhall/internal/payment"
	"studyhall/internal/queue"
	"studyhall/internal/store"
	"studyhall/internal/user"
)

func main() {
	cfg := config.MustLoad()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		// Every ledger writes through this handle; do not limp along.
		log.Fatalf("db connect failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	var locker lock.Locker
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		locker = lock.Noop{}
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "studyhall:notifications")
		locker = lock.NewRedisLock(redisClient.Client)
	}

	notifier := notify.NewService(notify.NewRepository(db.Client), q)

	users := user.NewService(user.NewRepository(db.Client), notifier)

	var payments *payment.Service
	admissions := admission.NewService(admission.NewRepository(db.Client), notifier, historyProxy{&payments})

	paymentRepo := payment.NewRepository(db.Client)
	bookingRepo := booking.NewRepository(db.Client)
	attendanceRepo := attendance.NewRepository(db.Client)

	// bookings and payments drive each other: a booking request opens a
	// payment, an approved payment books the seat.
	bookings := booking.NewService(bookingRepo, paymentsProxy{&payments}, cfg.SeatCapacity)
	payments = payment.NewService(paymentRepo, bookings, admissions, notifier)

	att := attendance.NewService(attendanceRepo, locker, cfg.CheckinLockTTL)
	detector := absence.NewDetector(admission.NewRepository(db.Client), attendanceRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := httpapi.NewServer(cfg, users, admissions, bookings, att, payments, detector, notify.NewRepository(db.Client))
	api.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// paymentsProxy defers resolution of the payment service until wiring is
// complete; booking and payment services reference each other.
type paymentsProxy struct {
	svc **payment.Service
}

func (p paymentsProxy) OpenForBooking(ctx context.Context, userID, bookingID string, amount float64) error {
	return (*p.svc).OpenForBooking(ctx, userID, bookingID, amount)
}

func (p paymentsProxy) RejectPendingForBooking(ctx context.Context, bookingID string) error {
	return (*p.svc).RejectPendingForBooking(ctx, bookingID)
}

// historyProxy defers the same cycle for the admission service's UPI
// history hook.
type historyProxy struct {
	svc **payment.Service
}

func (h historyProxy) RecordUPI(ctx context.Context, userID, admissionID string, amount float64) error {
	return (*h.svc).RecordUPI(ctx, userID, admissionID, amount)
}

// corsMiddleware allows browser clients through.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

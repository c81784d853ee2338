package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/biyahe/booking-backend/internal/config"
	"github.com/biyahe/booking-backend/internal/database"
	"github.com/biyahe/booking-backend/internal/handlers"
	"github.com/biyahe/booking-backend/internal/middleware"
	"github.com/biyahe/booking-backend/internal/queue"
	"github.com/biyahe/booking-backend/internal/services"
	"github.com/biyahe/booking-backend/pkg/jwt"
)

var version = "1.0.0"

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Biyahe booking backend")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Redis is optional: a nil client degrades seat holds and handoff
	// payloads to logged no-ops.
	redisClient := config.NewRedisClient(cfg.Redis)
	if redisClient == nil {
		logger.Warn("Redis unavailable, seat holds and handoff payloads disabled")
	}

	// Repositories
	userRepository := database.NewUserRepository(db)
	tripRepository := database.NewTripRepository(db)
	seatStatusRepository := database.NewSeatStatusRepository(db)
	bookingRepository := database.NewBookingRepository(db)
	passengerRepository := database.NewPassengerInfoRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	auditRepository := database.NewPaymentAuditRepository(db, logger)

	// Services
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	publisher := queue.NewPublisher(cfg.Queue.URL, logger)

	authService := services.NewAuthService(userRepository, jwtService, cfg.Security.BcryptCost, logger)
	availabilityService := services.NewAvailabilityService(seatStatusRepository, bookingRepository, logger)
	seatHoldService := services.NewSeatHoldService(redisClient, cfg.Booking.SeatHoldTTL, logger)
	selectionService := services.NewSelectionService(tripRepository, availabilityService, seatHoldService, logger)
	handoffService := services.NewHandoffService(redisClient, cfg.Booking.HandoffTTL, logger)
	bookingService := services.NewBookingService(
		bookingRepository,
		passengerRepository,
		seatStatusRepository,
		tripRepository,
		selectionService,
		handoffService,
		publisher,
		logger,
	)
	paymentService := services.NewPaymentService(
		paymentRepository,
		auditRepository,
		bookingRepository,
		bookingService,
		handoffService,
		tripRepository,
		redisClient,
		cfg.Payment.ConfirmMode,
		cfg.Payment.ScanCodeTTL,
		logger,
	)
	ticketService := services.NewTicketService(bookingRepository, passengerRepository, tripRepository, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	tripHandler := handlers.NewTripHandler(tripRepository, availabilityService, logger)
	selectionHandler := handlers.NewSelectionHandler(selectionService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, ticketService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Browsing and seat selection are open; submission and payment
		// require authentication.
		v1.GET("/destinations", tripHandler.SearchDestinations)
		v1.GET("/destinations/:id/trips", tripHandler.ListTrips)
		v1.GET("/trips/:id", tripHandler.GetTrip)
		v1.GET("/trips/:id/seats", tripHandler.GetTripSeats)

		selection := v1.Group("/selection")
		{
			selection.POST("", selectionHandler.StartSession)
			selection.GET("/:id", selectionHandler.GetSession)
			selection.POST("/:id/refresh", selectionHandler.RefreshAvailability)
			selection.POST("/:id/seats/:number/click", selectionHandler.ClickSeat)
			selection.POST("/:id/seats/:number/passenger", selectionHandler.SavePassenger)
			selection.POST("/:id/seats/:number/cancel", selectionHandler.CancelCapture)

			submit := selection.Group("")
			submit.Use(middleware.AuthMiddleware(jwtService, logger))
			{
				submit.POST("/:id/submit", bookingHandler.Submit)
			}
		}

		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.GET("/code/:code", bookingHandler.GetBookingByCode)
			bookings.DELETE("/:id", bookingHandler.Cancel)
			bookings.GET("/:id/handoff", bookingHandler.GetHandoff)
			bookings.GET("/:id/ticket", bookingHandler.GetTicket)
			bookings.GET("/:id/payment", paymentHandler.GetPayment)
			bookings.POST("/:id/payment", paymentHandler.SubmitPayment)
			bookings.POST("/:id/payment/scan", paymentHandler.IssueScanCode)
			bookings.POST("/:id/payment/scan/confirm", paymentHandler.ConfirmScanCode)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warnf("Failed to close Redis client: %v", err)
		}
	}

	logger.Info("Server exited successfully")
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    path,
			"query":   query,
			"ip":      c.ClientIP(),
			"latency": latency.String(),
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.WithFields(fields).Error("Request failed")
		case c.Writer.Status() >= 400:
			logger.WithFields(fields).Warn("Request rejected")
		default:
			logger.WithFields(fields).Info("Request completed")
		}
	}
}

func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

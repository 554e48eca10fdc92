package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/mixlab_studio/configs"
	"github.com/anjiri1684/mixlab_studio/analytics"
	"github.com/anjiri1684/mixlab_studio/database"
	"github.com/anjiri1684/mixlab_studio/events"
	"github.com/anjiri1684/mixlab_studio/handlers"
	"github.com/anjiri1684/mixlab_studio/jobs"
	"github.com/anjiri1684/mixlab_studio/logger"
	"github.com/anjiri1684/mixlab_studio/middleware"
	"github.com/anjiri1684/mixlab_studio/notifications"
	"github.com/anjiri1684/mixlab_studio/routes"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/anjiri1684/mixlab_studio/tracing"
	"github.com/anjiri1684/mixlab_studio/websocket"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

const serviceName = "mixlab-api"

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	logger.SetupGlobalHandler(serviceName, settings.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, serviceName, settings.OtelEndpoint)
	if err != nil {
		log.Fatalf("🔥 Failed to initialize tracing: %v", err)
	}

	database.ConnectDB(settings.DatabaseURL, settings.IsDevelopment())
	database.Migrate()
	database.RunSeedMigrations()
	database.SeedAdmin()

	store := database.NewGormStore(database.DB)

	publisher, err := events.New(events.Options{
		Broker:           settings.EventBroker,
		RabbitMQURL:      settings.RabbitMQURL,
		RabbitMQExchange: settings.RabbitMQExchange,
		NatsURL:          settings.NatsURL,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect event broker: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	dispatcher := notifications.NewDispatcher(store, hub, publisher)
	rewards := services.NewRewardService(database.DB, dispatcher)
	checker := services.NewConflictChecker(store, services.ParseSlotKeyMode(settings.BookingSlotKey), settings.BookingFailClosedOnMissingDate)
	bookingService := services.NewBookingService(store, checker, dispatcher,
		services.WithEventPublisher(publisher),
		services.WithRewarder(rewards),
	)
	guestService := services.NewGuestAccessService(store, services.GuestPolicy{
		MaxPlays:       settings.GuestMaxPlays,
		Instruments:    settings.GuestInstruments,
		MaxDurationMin: settings.GuestMaxDurationMin,
		MaxDifficulty:  settings.GuestMaxDifficulty,
	})
	otpService := services.NewOTPService(store, time.Duration(settings.OTPTTLMinutes)*time.Minute, settings.OTPMaxAttempts)

	var mailer notifications.Mailer
	if brevo := notifications.NewEmailServiceFromEnv(); brevo != nil {
		mailer = brevo
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		log.Fatalf("🔥 Failed to get sql.DB handle: %v", err)
	}
	reports := analytics.NewRepository(sqlx.NewDb(sqlDB, "postgres"))

	reminders := jobs.NewReminders(store, dispatcher)
	c := cron.New()
	if err := jobs.Schedule(c, "lesson reminders", "0 18 * * *", func() { reminders.SendLessonReminders(ctx) }); err != nil {
		log.Fatalf("🔥 Failed to schedule job: %v", err)
	}
	if err := jobs.Schedule(c, "otp sweep", "*/15 * * * *", func() { jobs.SweepExpiredOTPs(ctx, otpService) }); err != nil {
		log.Fatalf("🔥 Failed to schedule job: %v", err)
	}
	c.Start()
	slog.Info("cron jobs scheduled")

	app := fiber.New(fiber.Config{
		AppName:       "MixLab Studio",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(settings.IsDevelopment()),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Prometheus())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to MixLab Studio API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := sqlDB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "websocket_connections": hub.Connections(c.UserContext())})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	routes.Setup(app, routes.Deps{
		Auth:          middleware.ProtectedWithSecret(settings.JWTSecret),
		Guest:         middleware.GuestTracking(guestService, settings.GuestCookieDays),
		Throttle:      middleware.RateLimit(settings.RateLimitMax, time.Duration(settings.RateLimitExpiration)*time.Second),
		Users:         handlers.NewAuthHandler(database.DB, otpService, mailer, settings.JWTSecret, time.Duration(settings.JWTTTLHours)*time.Hour),
		Bookings:      handlers.NewBookingHandler(bookingService),
		Guests:        handlers.NewGuestHandler(guestService),
		Notifications: handlers.NewNotificationHandler(store, dispatcher),
		Analytics:     handlers.NewAnalyticsHandler(reports),
		Stream:        handlers.NewStreamHandler(hub, settings.JWTSecret),
	})

	go func() {
		slog.Info("Server is running", "port", settings.Port)
		if err := app.Listen(":" + settings.Port); err != nil {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-c.Stop().Done()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		slog.Warn("event publisher close failed", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
	sqlDB.Close()
}

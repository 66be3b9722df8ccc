package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/runnerstay/booking-service/config"
	"github.com/runnerstay/booking-service/internal/consumer"
	"github.com/runnerstay/booking-service/internal/handler"
	"github.com/runnerstay/booking-service/internal/middleware"
	"github.com/runnerstay/booking-service/internal/repository"
	"github.com/runnerstay/booking-service/internal/scheduler"
	"github.com/runnerstay/booking-service/internal/service"
	"github.com/runnerstay/booking-service/pkg/database"
	"github.com/runnerstay/booking-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	raceRepo := repository.NewRaceRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	// Services
	accountSvc := service.NewAccountService(userRepo, publisher)
	ledgerSvc := service.NewLedgerService(userRepo, txnRepo, accountSvc)
	costSvc := service.NewCostService(raceRepo, cfg)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo)
	raceSvc := service.NewRaceService(raceRepo)
	bookingSvc := service.NewBookingService(bookingRepo, userRepo, raceRepo, ledgerSvc, costSvc, availabilitySvc, publisher, cfg)
	subSvc := service.NewSubscriptionService(subRepo, userRepo, raceRepo, bookingRepo, ledgerSvc, accountSvc, bookingSvc, publisher, cfg)

	// RabbitMQ consumer: billing webhook stream bridged from the gateway
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ consumer: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewBillingConsumer(subSvc).Start(msgs)

	// Scheduler: the time-driven transitions bookings do not self-trigger
	sched := scheduler.New(cfg.SchedulerInterval,
		scheduler.Job{Name: "expire-pending", Run: func(ctx context.Context, now time.Time) error {
			_, err := bookingSvc.ExpireSweep(ctx, now)
			return err
		}},
		scheduler.Job{Name: "auto-confirm", Run: func(ctx context.Context, now time.Time) error {
			_, err := bookingSvc.AutoConfirmSweep(ctx, now)
			return err
		}},
		scheduler.Job{Name: "auto-complete", Run: func(ctx context.Context, now time.Time) error {
			_, err := bookingSvc.AutoCompleteSweep(ctx, now)
			return err
		}},
	)
	sched.Start(context.Background())
	defer sched.Stop()

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "booking-service"})
	})

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewLedgerHandler(ledgerSvc).RegisterRoutes(e)
	handler.NewAvailabilityHandler(availabilitySvc).RegisterRoutes(e)
	handler.NewRaceHandler(raceSvc).RegisterRoutes(e)
	handler.NewWebhookHandler(subSvc).RegisterRoutes(e)
	handler.NewAdminHandler(accountSvc).RegisterRoutes(e)

	log.Printf("Booking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

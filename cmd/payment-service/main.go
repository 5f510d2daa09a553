/**
 * @description
 * This is the main entry point for the payment-service. It is responsible for
 * initializing all components of the service, including configuration, database
 * connection, the payment processor client, message broker consumers and
 * producer, repositories, the core application services, the webhook endpoint,
 * and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/payment/*: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 * - pkg/stripegateway: Client for the Stripe API.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fitlink/fitlink-backend/internal/payment/api"
	"github.com/fitlink/fitlink-backend/internal/payment/app"
	"github.com/fitlink/fitlink-backend/internal/payment/config"
	"github.com/fitlink/fitlink-backend/internal/payment/domain"
	"github.com/fitlink/fitlink-backend/internal/payment/store"
	"github.com/fitlink/fitlink-backend/pkg/rabbitmq"
	"github.com/fitlink/fitlink-backend/pkg/stripegateway"
)

func main() {
	// Load the optional .env file before reading the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.StripeAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"stripe api key must be configured\" env=STRIPE_API_KEY")
	}
	if strings.TrimSpace(cfg.StripeWebhookSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"stripe webhook secret must be configured\" env=STRIPE_WEBHOOK_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting payment-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Ensure required tables exist (idempotent).
	if err := store.EnsureSchema(context.Background(), dbpool); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"failed ensuring tables (may already exist)\" err=%v", err)
	}

	// Initialize the RabbitMQ producer for billing notifications.
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq producer init failed\" err=%v", err)
	}
	defer producer.Close()
	log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")

	// Webhook dedup: redis when configured and reachable, in-memory otherwise.
	dedupTTL := time.Duration(cfg.WebhookDedupTTLHrs) * time.Hour
	var deduper app.EventDeduper = app.NewMemoryEventDeduper(dedupTTL)
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; using in-memory webhook dedup\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory webhook dedup\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				deduper = app.NewRedisEventDeduper(redisClient, cfg.WebhookDedupPrefix, dedupTTL)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	} else {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; using in-memory webhook dedup\" env=REDIS_URL")
	}

	// Initialize the data access layer and the payment processor client.
	repository := store.NewRepository(dbpool)
	gateway := stripegateway.NewClient(cfg.StripeAPIKey, cfg.BillingCurrency)

	// Core application components.
	billingService := app.NewService(repository, gateway, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	webhookProcessor := app.NewWebhookProcessor(repository, producer, deduper)
	planConsumer := app.NewPlanEventConsumer(repository, gateway)
	sessionConsumer := app.NewSessionEventConsumer(repository, gateway)

	// Start the broker consumers. Plan and session events land on separate
	// queues so a backlog of one kind cannot starve the other.
	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer consumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	planBindings := map[string]rabbitmq.HandlerFunc{
		domain.TopicGymPlanCreated: planConsumer.HandlePlanCreated,
		domain.TopicGymPlanDeleted: planConsumer.HandlePlanDeleted,
		domain.TopicGymPlanUpdated: planConsumer.HandlePlanUpdated,
	}
	if err := consumer.ConsumeWithBindings(consumerCtx, domain.EventsExchange, cfg.PlanEventQueue, planBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"plan consumer start failed\" err=%v", err)
	}

	sessionBindings := map[string]rabbitmq.HandlerFunc{
		domain.TopicTrainerSessionCreated: sessionConsumer.HandleSessionCreated,
	}
	if err := consumer.ConsumeWithBindings(consumerCtx, domain.EventsExchange, cfg.SessionEventQueue, sessionBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"session consumer start failed\" err=%v", err)
	}
	log.Println("level=info component=bootstrap msg=\"broker consumers started\"")

	// Scheduled subscription lapse sweep.
	slogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	jobs := app.NewJobs(repository, slogger)
	scheduler := app.NewScheduler(jobs, slogger, cfg.LapseSchedule)
	scheduler.Start()

	// API surface.
	billingHandlers := api.NewBillingHandlers(billingService)
	webhookHandler := api.NewWebhookHandler(webhookProcessor, cfg.StripeWebhookSecret)
	router := api.PaymentRoutes(billingHandlers, webhookHandler, cfg.JWKSURL)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	cancelConsumers()
	<-scheduler.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}

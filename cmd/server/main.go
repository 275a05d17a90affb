package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamcart/config"
	"streamcart/internal/api"
	"streamcart/internal/broker"
	"streamcart/internal/commerce"
	"streamcart/internal/entitlement"
	"streamcart/internal/flight"
	"streamcart/internal/mailer"
	"streamcart/internal/payment"
	"streamcart/internal/redisclient"
	"streamcart/internal/region"
	"streamcart/internal/service"
	"streamcart/internal/store"
	"streamcart/internal/util"
	"streamcart/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting streamcart gateway")

	tp, err := util.InitTracer("streamcart", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	commerceClient := commerce.NewClient(cfg.Commerce.BaseURL, cfg.Commerce.PublishableKey)

	regionCache := region.NewCache(commerceClient.ListRegions, time.Hour, nil)

	tokenizer := payment.NewTokenizer(cfg.Payment.TokenizerURL, cfg.Payment.TokenizerLoginID, cfg.Payment.TokenizerClientKey)
	orchestrator := payment.NewOrchestrator(commerceClient, tokenizer)
	applePay := payment.NewApplePayValidator(
		cfg.Payment.ApplePayMerchantID, cfg.Payment.ApplePayDomain, cfg.Payment.ApplePayDisplayName, nil)

	signer, err := entitlement.NewSignerFromFile(
		cfg.Playback.SigningKeyPath, cfg.Playback.SigningKeyID,
		time.Duration(cfg.Playback.TokenTTLSecs)*time.Second)
	if err != nil {
		log.Fatalf("Failed to load playback signing key: %v", err)
	}
	resolver := entitlement.NewResolver(commerceClient)

	flights := flight.NewSupervisor()
	cartService := service.NewCartService(commerceClient, regionCache, flights)
	checkoutService := service.NewCheckoutService(
		commerceClient, orchestrator, db, eventPublisher, redisClient, flights, cfg.Commerce.DigitalTypeID)
	auditionService := service.NewAuditionService(db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	mailClient := mailer.NewMailer(cfg.Mail.APIBaseURL, cfg.Mail.APIKey, cfg.Mail.FromAddress)
	mailConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase, cfg.Kafka.ConsumerGroup)
	mailWorker := worker.NewMailWorker(mailConsumer, db, mailClient, cfg.Mail.AuditionDest)
	go func() {
		if err := mailWorker.Start(workerCtx); err != nil {
			log.Printf("Mail worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(
		cartService, checkoutService, auditionService,
		resolver, signer, applePay, db,
		cfg.Locale.Default, cfg.Locale.Supported)
	handler.SetupRoutes(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: corsHandler.Handler(router),
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	mailWorker.Stop()

	log.Println("Server exited")
}

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

	"github.com/joho/godotenv"
	"github.com/tourist-verify-api/internal/config"
	"github.com/tourist-verify-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/tourist-verify-api/internal/infrastructure/jwt"
	s3infra "github.com/tourist-verify-api/internal/infrastructure/s3"
	"github.com/tourist-verify-api/internal/infrastructure/sns"
	"github.com/tourist-verify-api/internal/infrastructure/whatsapp"
	transporthttp "github.com/tourist-verify-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// WhatsApp client. Falls back to development mode (logged sends) when
	// credentials are missing.
	waClient := whatsapp.NewClient(cfg)
	if !cfg.WhatsAppConfigured {
		log.Println("WARN: WhatsApp credentials missing, running in development delivery mode")
	}

	// SNS SMS sender (optional, graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// JWT provider for the admin surface (optional, admin routes closed without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available, admin endpoints disabled: %v", err)
	}

	// S3 archive for raw webhook payloads.
	archive := s3infra.NewArchive(s3infra.NewClient(cfg), cfg.S3BucketName)

	deps := &transporthttp.Deps{
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		TouristRepo: dynamo.NewTouristRepo(dynamoClient, cfg.DynamoTables.Tourists),
		WhatsApp:    waClient,
		SMSSender:   smsSender,
		Archive:     archive,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ovolkov/bankcards-backend/internal/adapter/httpapi"
	"github.com/ovolkov/bankcards-backend/internal/adapter/repository/postgres"
	"github.com/ovolkov/bankcards-backend/internal/auth"
	"github.com/ovolkov/bankcards-backend/internal/config"
	"github.com/ovolkov/bankcards-backend/internal/pan"
	"github.com/ovolkov/bankcards-backend/internal/usecase/card"
	"github.com/ovolkov/bankcards-backend/internal/usecase/seeder"
	"github.com/ovolkov/bankcards-backend/internal/usecase/transfer"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.New()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := postgres.NewDB(cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// The PAN cipher is non-negotiable: refuse to start rather than
	// run without PAN protection.
	key := cfg.PANKey
	if key == nil {
		logger.Warn("PAN_KEY not set, generating a process-lifetime key; stored PANs will be unreadable after restart")
		key, err = pan.NewRandomKey()
		if err != nil {
			logger.Fatalf("Failed to generate PAN key: %v", err)
		}
	}
	cipher, err := pan.NewCipher(key)
	if err != nil {
		logger.Fatalf("Failed to initialize PAN cipher: %v", err)
	}

	cardRepo := postgres.NewCardRepository(db)
	statusRepo := postgres.NewStatusRepository(db)
	holderRepo := postgres.NewHolderRepository(db)
	uow := postgres.NewUnitOfWork(db)

	statusSeeder := seeder.NewStatusSeeder(statusRepo)
	if err := statusSeeder.Seed(context.Background()); err != nil {
		logger.Fatalf("Failed to seed card statuses: %v", err)
	}
	logger.Info("Card statuses seeded")

	cardService := card.NewService(cardRepo, statusRepo, holderRepo, pan.NewGenerator(), cipher, logger)
	transferEngine := transfer.NewEngine(uow, logger)
	authService := auth.NewService(holderRepo, cfg.JWTSecret, logger)

	handler := httpapi.NewHandler(authService, cardService, transferEngine, logger)
	router := httpapi.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	waitForShutdown(server, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and drains the server
func waitForShutdown(server *http.Server, logger *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infof("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}

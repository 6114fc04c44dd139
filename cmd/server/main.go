package main

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chainfolio/backend/internal/chain"
	"github.com/chainfolio/backend/internal/config"
	"github.com/chainfolio/backend/internal/db"
	"github.com/chainfolio/backend/internal/handlers"
	"github.com/chainfolio/backend/internal/logger"
	"github.com/chainfolio/backend/internal/models"
	"github.com/chainfolio/backend/internal/notify"
	"github.com/chainfolio/backend/internal/pricing"
	"github.com/chainfolio/backend/internal/services"
	"github.com/chainfolio/backend/internal/valuation"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Durable price store is optional; without a DSN the session caches
	// carry everything.
	var store *pricing.PriceStore
	var database *db.DB
	if cfg.PriceStore.DSN != "" {
		database, err = db.Connect(cfg.PriceStore.DSN)
		if err != nil {
			zapLogger.Fatal("failed to connect to price store", zap.Error(err))
		}
		defer database.Close()

		store = pricing.NewPriceStore(database)
		if err := store.Migrate(); err != nil {
			zapLogger.Fatal("failed to migrate price store", zap.Error(err))
		}
		zapLogger.Info("durable price store enabled")
	}

	// Pricing pipeline.
	binance := pricing.NewBinancePriceProvider(cfg.Pricing.BinanceBaseURL)
	frankfurter := pricing.NewFrankfurterFXProvider(cfg.Pricing.FrankfurterBaseURL)
	resolver := pricing.NewResolver(binance, frankfurter, store,
		pricing.NewPriceCache(), pricing.NewFXCache(), zapLogger)

	// Chain sources.
	sources := map[models.Chain]chain.Source{
		models.ChainEthereum: chain.NewEtherscanSource(cfg.Explorers, zapLogger),
		models.ChainSolana:   chain.NewHeliusSource(cfg.Helius.BaseURL, cfg.Helius.APIKey, zapLogger),
	}

	// Services.
	notifier := notify.NewZapNotifier(zapLogger)
	txService := services.NewTransactionService(sources, notifier, zapLogger)
	normalizer := valuation.NewNormalizer(resolver)
	aggregator := valuation.NewAggregator(resolver, zapLogger)
	portfolioService := services.NewPortfolioService(txService, normalizer, aggregator,
		cfg.OwnWallets(), notifier, zapLogger)

	defaultWallets := defaultWallets(cfg)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, defaultWallets)
	transactionHandler := handlers.NewTransactionHandler(portfolioService, defaultWallets)
	healthHandler := handlers.NewHealthHandler(database)

	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)
	router.Use(handlers.RecoveryMiddleware(zapLogger))
	router.Use(handlers.LoggingMiddleware(zapLogger))
	router.Use(handlers.CORSMiddleware)

	router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	router.HandleFunc("/api/portfolio/stats", portfolioHandler.HandleStats).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/transactions", transactionHandler.HandleList).Methods("GET", "OPTIONS")

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	zapLogger.Info("server listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

// defaultWallets builds the wallet set served when a request names no
// address.
func defaultWallets(cfg *config.Config) []services.WalletRef {
	var wallets []services.WalletRef
	for _, addr := range cfg.Wallets.EVM {
		wallets = append(wallets, services.WalletRef{Address: addr, Chain: models.ChainEthereum})
	}
	for _, addr := range cfg.Wallets.Solana {
		wallets = append(wallets, services.WalletRef{Address: addr, Chain: models.ChainSolana})
	}
	return wallets
}

package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vaultline/account-service/internal/config"
	"github.com/vaultline/account-service/internal/events"
	"github.com/vaultline/account-service/internal/handler"
	"github.com/vaultline/account-service/internal/lock"
	"github.com/vaultline/account-service/internal/middleware"
	"github.com/vaultline/account-service/internal/repository"
	"github.com/vaultline/account-service/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// Database connection
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("failed to migrate schema", zap.Error(err))
	}

	// Redis connection
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	defer redisClient.Close()

	publisher := events.NewPublisher(redisClient)
	locker := lock.NewManager(redisClient, cfg.LockWait, cfg.LockLease, logger)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db, redisClient, logger)

	// Services
	accountSvc := service.NewAccountService(userRepo, accountRepo, publisher, logger)
	transactionSvc := service.NewTransactionService(userRepo, accountRepo, transactionRepo, locker, publisher, logger)

	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/account", accountHandler.CreateAccount)
	router.DELETE("/account", accountHandler.CloseAccount)
	router.GET("/account", accountHandler.ListAccounts)

	router.POST("/transaction/use", transactionHandler.UseBalance)
	router.POST("/transaction/cancel", transactionHandler.CancelBalance)
	router.GET("/transaction/:transactionId", transactionHandler.QueryTransaction)

	logger.Info("account service starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

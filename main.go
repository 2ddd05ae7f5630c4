package main

import (
	"chatapp-client/internal/app"
	"chatapp-client/internal/config"
	"chatapp-client/internal/database"
	"chatapp-client/internal/models"
	"chatapp-client/internal/session"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func setupLogger(cfg models.ConfigFile) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	if cfg.LogToFile {
		config.OutputPaths = append(config.OutputPaths, "app.log")
	}
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

func setupRedis(address string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: "",
		DB:       0,
	})

	err := rdb.Ping(context.Background()).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func main() {
	fmt.Println("Reading config file...")
	cfg, err := config.Read("config.json")
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("Setting up logger...")
	sugar, err := setupLogger(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer sugar.Sync()

	fmt.Println("Setting up database...")
	db, err := database.Setup(sugar, &cfg)
	if err != nil {
		sugar.Fatal(err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if !cfg.SelfContained || cfg.MessageSource == config.SourceRedis {
		fmt.Println("Connecting to redis...")
		redisClient, err = setupRedis(cfg.RedisAddress)
		if err != nil {
			sugar.Fatal(err)
		}
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.New(sugar, cfg, db, redisClient)
	if err != nil {
		sugar.Fatal(err)
	}

	fmt.Println("Loading session...")
	err = client.Bootstrap(ctx)
	if err != nil {
		sugar.Fatal(err)
	}

	var signer *session.Signer
	if cfg.JwtSecret != "" {
		signer = session.NewSigner(cfg.JwtSecret)
		token, expiration, err := signer.CreateToken(true, cfg.UserID)
		if err != nil {
			sugar.Fatal(err)
		}
		sugar.Infof("Token for user ID [%s], valid until [%s]: %s", cfg.UserID, expiration.Format(time.RFC3339), token)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Address, cfg.Port),
		Handler: client.Handlers(signer).Router(cfg.PrintHttpRequests),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		if err != nil {
			sugar.Error(err)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- client.Run(ctx)
	}()

	fmt.Printf("Server is running on http://%s\n", server.Addr)

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatal(err)
	}

	err = <-runErr
	if err != nil {
		sugar.Error(err)
	}
}

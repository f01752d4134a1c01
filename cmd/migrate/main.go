package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bugtrack/database"
	"bugtrack/logger"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	log := logger.Init(logger.Config{Level: "info"})
	defer log.Sync()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatal("failed to connect", zap.Error(err))
	}
	defer conn.Close(context.Background())

	err = database.Migrate(ctx, conn, func(name string) {
		log.Info("applied migration", zap.String("file", name))
	})
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	fmt.Println("\nAll migrations completed!")
}

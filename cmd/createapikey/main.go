package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/config"
	"github.com/avdeenko/license-dashboard-api/internal/domain/apikey"
	"github.com/avdeenko/license-dashboard-api/internal/storage/postgres"
	"github.com/avdeenko/license-dashboard-api/internal/util"
)

func main() {
	description := flag.String("description", "Activation agent key", "Human-readable description stored with the key")
	flag.Parse()

	dbURL := os.Getenv(config.EnvStoreURL)
	if dbURL == "" {
		log.Fatalf("%s environment variable is required", config.EnvStoreURL)
	}

	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}

	fmt.Printf("Generated API Key (SAVE THIS securely!):\n%s\n\n", fullKey)
	fmt.Printf("Prefix: %s\n", prefix)
	fmt.Printf("Key Hash: %s\n", keyHash)

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to record store: %v\n", err)
	}
	defer pool.Close()

	repo := postgres.NewAPIKeyRepository(pool, logger)

	newKeyRecord := &apikey.APIKey{
		KeyHash:     keyHash,
		Prefix:      prefix,
		Description: *description,
		IsEnabled:   true,
	}

	keyID, err := repo.Create(context.Background(), newKeyRecord)
	if err != nil {
		log.Fatalf("Failed to save API key to record store: %v", err)
	}

	fmt.Printf("\nAPI Key saved with ID: %s\n", keyID)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/BeckerFac/restaurant-ordering/services/order-service/store"
)

func main() {
	var from, fromTarget, to, toTarget string
	var dryRun bool
	flag.StringVar(&from, "from", os.Getenv("MIGRATE_FROM"), "source backend (memory, redis, postgres, mongo, dynamodb)")
	flag.StringVar(&fromTarget, "from-target", os.Getenv("MIGRATE_FROM_TARGET"), "source URL/DSN, or table name for dynamodb")
	flag.StringVar(&to, "to", os.Getenv("MIGRATE_TO"), "destination backend")
	flag.StringVar(&toTarget, "to-target", os.Getenv("MIGRATE_TO_TARGET"), "destination URL/DSN, or table name for dynamodb")
	flag.BoolVar(&dryRun, "dry-run", false, "list the keys that would be copied")
	flag.Parse()

	if from == "" || to == "" {
		log.Fatal("-from and -to must be set or provided via MIGRATE_FROM / MIGRATE_TO")
	}

	ctx := context.Background()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	src, err := store.Open(ctx, configFor(from, fromTarget), logger)
	if err != nil {
		log.Fatalf("open source %s: %v", from, err)
	}
	defer src.Close()

	keys, err := KeysToCopy(ctx, src)
	if err != nil {
		log.Fatalf("list source keys: %v", err)
	}
	if dryRun {
		for _, k := range keys {
			fmt.Println(k)
		}
		return
	}

	dst, err := store.Open(ctx, configFor(to, toTarget), logger)
	if err != nil {
		log.Fatalf("open destination %s: %v", to, err)
	}
	defer dst.Close()

	count, err := Copy(ctx, src, dst, keys)
	if err != nil {
		log.Fatalf("migration stopped after %d keys: %v", count, err)
	}
	fmt.Printf("Migration complete. migrated=%d\n", count)
}

func configFor(backend, target string) store.Config {
	cfg := store.Config{Backend: backend}
	switch backend {
	case store.BackendRedis:
		cfg.RedisURL = target
	case store.BackendPostgres:
		cfg.PostgresDSN = target
	case store.BackendMongo:
		cfg.MongoURL = target
		cfg.MongoDatabase = "restaurant"
		cfg.MongoCollection = "kv"
	case store.BackendDynamoDB:
		cfg.DynamoTable = target
	}
	return cfg
}

package utils

import (
	"context"
	"fmt"
	"time"

	"gymbook/config"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// CacheClient backs the calendar cache.
var CacheClient *redis.Client

// ConnectCache dials the calendar cache DB and waits for a PONG.
func ConnectCache(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache at %s (db %d): %w", config.AppConfig.RedisAddr, config.AppConfig.RedisCacheDB, err)
	}
	return client, nil
}

// GetCacheClient returns the shared cache client, connecting on first use.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		client, err := ConnectCache(context.Background())
		if err != nil {
			GetLogger().Sugar().Fatalf("Failed to connect to Redis (Cache): %v", err)
		}
		CacheClient = client
	}
	return CacheClient
}

// QueueRedisOpt points asynq at the task queue DB on the same server.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

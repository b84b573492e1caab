package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-render/internal/config"
	"resume-render/internal/logging"
)

// ErrCacheMiss is returned by GetPDF when nothing is stored under the key
var ErrCacheMiss = errors.New("cache miss")

// RedisClient wraps the Redis client with a rendered-PDF cache
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	// Parse Redis URL
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		opts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &RedisClient{
		client: redis.NewClient(opts),
		ttl:    cfg.Cache.TTL,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetPDF returns the PDF cached for an HTML document
func (r *RedisClient) GetPDF(ctx context.Context, html string) ([]byte, error) {
	data, err := r.client.Get(ctx, PDFCacheKey(html)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cached pdf: %w", err)
	}
	return data, nil
}

// PutPDF stores the PDF rendered from an HTML document
func (r *RedisClient) PutPDF(ctx context.Context, html string, pdf []byte) error {
	key := PDFCacheKey(html)
	if err := r.client.Set(ctx, key, pdf, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to cache rendered pdf", map[string]interface{}{
			"key":   key,
			"bytes": len(pdf),
			"error": err.Error(),
		})
		return fmt.Errorf("failed to cache pdf: %w", err)
	}
	return nil
}

// PDFCacheKey derives the cache key for an HTML document. Rendering is
// deterministic, so identical documents share one entry.
func PDFCacheKey(html string) string {
	sum := sha256.Sum256([]byte(html))
	return "resume-render:pdf:" + hex.EncodeToString(sum[:])
}

// IsHealthy checks if Redis is connected and healthy
func (r *RedisClient) IsHealthy(ctx context.Context) error {
	return r.Ping(ctx)
}

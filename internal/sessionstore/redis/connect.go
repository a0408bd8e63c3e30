package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRetryAttempts = 3
	defaultRetryInterval = 2 * time.Second
)

// Connect parses a redis:// or rediss:// URL, opens a client and verifies
// connectivity with a ping before returning. Transient startup failures are
// retried a few times so the app survives redis coming up slightly later.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("error while parsing redis url. Err: %w", err)
	}

	client := redis.NewClient(opts)

	for attempt := 0; ; attempt++ {
		err = client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		if attempt >= defaultRetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(defaultRetryInterval):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis did not become ready. Err: %w", err)
}

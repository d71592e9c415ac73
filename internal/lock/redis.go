package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
)

var _ Locker = (*Redis)(nil)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis shares the lock between the server and worker processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, log: log}
}

func (r *Redis) Acquire(ctx context.Context, campaignID int) (func(), error) {
	k := key(campaignID)
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !ok {
		return nil, appErrors.ErrDispatchInProgress
	}
	return func() {
		if err := releaseScript.Run(context.Background(), r.client, []string{k}, token).Err(); err != nil {
			r.log.Warn().Err(err).Int("campaign_id", campaignID).Msg("failed to release dispatch lock")
		}
	}, nil
}

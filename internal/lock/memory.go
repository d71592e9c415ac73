package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
)

var _ Locker = (*Memory)(nil)

// Memory is an in-process lock. Entries expire after ttl so a crashed
// dispatch cannot hold a campaign forever.
type Memory struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{cache: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *Memory) Acquire(_ context.Context, campaignID int) (func(), error) {
	k := key(campaignID)
	token := uuid.NewString()
	if err := m.cache.Add(k, token, m.ttl); err != nil {
		return nil, appErrors.ErrDispatchInProgress
	}
	return func() {
		if v, ok := m.cache.Get(k); ok && v.(string) == token {
			m.cache.Delete(k)
		}
	}, nil
}

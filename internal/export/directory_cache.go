package export

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
)

const (
	usersKey      = "users"
	activitiesKey = "activities"
)

// CachedDirectory serves directory lookups from an in-memory LRU with a TTL.
type CachedDirectory struct {
	next       Directory
	users      *expirable.LRU[string, map[string]model.AppUser]
	activities *expirable.LRU[string, []model.Activity]
}

// NewCachedDirectory wraps next. size bounds each cache, ttl is the entry lifetime.
func NewCachedDirectory(next Directory, size int, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		next:       next,
		users:      expirable.NewLRU[string, map[string]model.AppUser](size, nil, ttl),
		activities: expirable.NewLRU[string, []model.Activity](size, nil, ttl),
	}
}

func (c *CachedDirectory) Users(ctx context.Context) (map[string]model.AppUser, error) {
	if v, ok := c.users.Get(usersKey); ok {
		directoryCacheHits.Inc()
		return v, nil
	}
	directoryCacheMisses.Inc()
	v, err := c.next.Users(ctx)
	if err != nil {
		return nil, err
	}
	c.users.Add(usersKey, v)
	return v, nil
}

func (c *CachedDirectory) Activities(ctx context.Context) ([]model.Activity, error) {
	if v, ok := c.activities.Get(activitiesKey); ok {
		directoryCacheHits.Inc()
		return v, nil
	}
	directoryCacheMisses.Inc()
	v, err := c.next.Activities(ctx)
	if err != nil {
		return nil, err
	}
	c.activities.Add(activitiesKey, v)
	return v, nil
}

// Purge drops all cached lookups.
func (c *CachedDirectory) Purge() {
	c.users.Purge()
	c.activities.Purge()
}

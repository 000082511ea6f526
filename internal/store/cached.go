package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dreamplay/lineup/internal/cache"
	"github.com/dreamplay/lineup/internal/models"
)

// Cache TTLs. Configuration rows (states, packages) change rarely; demo
// user rows are never cached because session decisions must see fresh
// validity and device state.
const (
	ttlState      = 10 * time.Minute
	ttlPackage    = 5 * time.Minute
	ttlPartnerPkg = 5 * time.Minute
	ttlMessages   = 30 * time.Second
)

// CachedStore wraps a Store with a Redis caching layer for the read-heavy
// configuration rows; writes invalidate the relevant keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached reads ---

func (c *CachedStore) GetStateByName(ctx context.Context, name string) (*models.State, error) {
	key := "state:" + name
	if v, err := cache.Get[models.State](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	s, err := c.inner.GetStateByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, s, ttlState); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return s, nil
}

func (c *CachedStore) GetDefaultPackageByState(ctx context.Context, stateID int64) (*models.DefaultPackage, error) {
	key := fmt.Sprintf("package:state:%d", stateID)
	if v, err := cache.Get[models.DefaultPackage](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	pkg, err := c.inner.GetDefaultPackageByState(ctx, stateID)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, pkg, ttlPackage); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return pkg, nil
}

func (c *CachedStore) GetDefaultPackageByID(ctx context.Context, id int64) (*models.DefaultPackage, error) {
	key := fmt.Sprintf("package:%d", id)
	if v, err := cache.Get[models.DefaultPackage](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	pkg, err := c.inner.GetDefaultPackageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, pkg, ttlPackage); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return pkg, nil
}

func (c *CachedStore) GetPartnerPackage(ctx context.Context, code string) (*models.PartnerPackage, error) {
	key := "partnerpkg:" + code
	if v, err := cache.Get[models.PartnerPackage](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	pkg, err := c.inner.GetPartnerPackage(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, pkg, ttlPartnerPkg); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return pkg, nil
}

func (c *CachedStore) ListScrollingMessages(ctx context.Context) ([]models.ScrollingMessage, error) {
	const key = "messages:all"
	if v, err := cache.Get[[]models.ScrollingMessage](ctx, c.cache, key); err == nil {
		return v, nil
	}
	msgs, err := c.inner.ListScrollingMessages(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, msgs, ttlMessages); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return msgs, nil
}

// --- writes (pass through, invalidating what they touch) ---

func (c *CachedStore) UpdatePartnerDevices(ctx context.Context, code, deviceIDs string) error {
	if err := c.inner.UpdatePartnerDevices(ctx, code, deviceIDs); err != nil {
		return err
	}
	if err := c.cache.Del(ctx, "partnerpkg:"+code); err != nil {
		log.Printf("cache: del partnerpkg:%s: %v", code, err)
	}
	return nil
}

// --- uncached pass-through (session state must always be fresh) ---

func (c *CachedStore) GetDemoUser(ctx context.Context, mobile string) (*models.DemoUser, error) {
	return c.inner.GetDemoUser(ctx, mobile)
}

func (c *CachedStore) CreateDemoUser(ctx context.Context, u *models.DemoUser) error {
	return c.inner.CreateDemoUser(ctx, u)
}

func (c *CachedStore) UpdateDemoUserDevices(ctx context.Context, mobile, deviceIDs string) error {
	return c.inner.UpdateDemoUserDevices(ctx, mobile, deviceIDs)
}

func (c *CachedStore) RenewDemoUser(ctx context.Context, mobile string, validityHours int, createdAt time.Time) error {
	return c.inner.RenewDemoUser(ctx, mobile, validityHours, createdAt)
}

func (c *CachedStore) DeleteDemoUser(ctx context.Context, mobile string) error {
	return c.inner.DeleteDemoUser(ctx, mobile)
}

func (c *CachedStore) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mindflow_backend/internal/feature/auth/domain/entity"
	"mindflow_backend/internal/feature/auth/usecase"
)

// CachingUserRepository decorates a UserRepository with a Redis read-through cache
// for profile lookups by ID. Only the profile is cached: the password hash and the
// refresh token never leave the store, and FindByIDWithRefreshToken always reads it.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// cachedProfile is the Redis representation of a user, without credentials.
type cachedProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func profileFromEntity(u *entity.User) cachedProfile {
	return cachedProfile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (p cachedProfile) toEntity() *entity.User {
	return &entity.User{
		ID:              p.ID,
		Name:            p.Name,
		Email:           p.Email,
		IsEmailVerified: p.IsEmailVerified,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create is passed through; new users are cached on first lookup.
func (c *CachingUserRepository) Create(ctx context.Context, u *entity.User) error {
	return c.inner.Create(ctx, u)
}

// FindByEmail is passed through. Login always reads the store.
func (c *CachingUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmail(ctx, email)
}

// FindByID checks the cache first, then falls back to the inner repository.
// The returned user carries no PasswordHash or RefreshToken, whether cached or not.
func (c *CachingUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if c.rdb == nil {
		u, err := c.inner.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return profileFromEntity(u).toEntity(), nil
	}

	key := c.cacheKey(id)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var p cachedProfile
		if err := json.Unmarshal(b, &p); err == nil && p.ID != "" {
			return p.toEntity(), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the store
	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	p := profileFromEntity(u)
	if b, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("user cache write failed", "error", err)
		}
	}

	return p.toEntity(), nil
}

// FindByIDWithRefreshToken always reads the inner repository.
func (c *CachingUserRepository) FindByIDWithRefreshToken(ctx context.Context, id string) (*entity.User, error) {
	return c.inner.FindByIDWithRefreshToken(ctx, id)
}

// SetRefreshToken writes through and invalidates the cached user.
// A failed invalidation fails the write.
func (c *CachingUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	if err := c.inner.SetRefreshToken(ctx, id, token); err != nil {
		return err
	}
	return c.invalidate(ctx, id)
}

// ClearRefreshToken writes through and invalidates the cached user.
// A failed invalidation fails the write.
func (c *CachingUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	if err := c.inner.ClearRefreshToken(ctx, id); err != nil {
		return err
	}
	return c.invalidate(ctx, id)
}

func (c *CachingUserRepository) invalidate(ctx context.Context, id string) error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Del(ctx, c.cacheKey(id)).Err(); err != nil {
		slog.Error("user cache invalidation failed", "error", err, "user_id", id)
		return fmt.Errorf("failed to invalidate cached user: %w", err)
	}
	return nil
}

// cacheKey generates the cache key for a user ID.
func (c *CachingUserRepository) cacheKey(id string) string {
	return fmt.Sprintf("%s:id:%s", c.namespace, id)
}

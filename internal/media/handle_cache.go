package media

import (
	"context"
	"time"

	ca "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"whatsapp-notify/internal/errs"
	"whatsapp-notify/internal/metrics"
)

const (
	redisKeyPrefix = "wa:handle:"
	defaultTTL     = 24 * time.Hour
)

// Uploader turns file bytes into a provider asset handle.
type Uploader interface {
	UploadResumable(ctx context.Context, fileName, mimeType string, data []byte) (string, error)
}

// HandleRepository persists handles next to the record that owns the media.
type HandleRepository interface {
	FindHandle(ctx context.Context, key string) (string, error)
	SaveHandle(ctx context.Context, key, handle string) error
}

// HandleCache answers handle lookups from the cheapest tier that has them:
// process memory, redis, the database, and finally a fresh upload. A fresh
// handle is written back to every configured tier.
type HandleCache struct {
	local    *ca.Cache
	rdb      redis.Cmdable
	ttl      time.Duration
	repo     HandleRepository
	loader   Loader
	uploader Uploader
	logger   *zap.Logger
}

type Option func(*HandleCache)

func WithRedis(rdb redis.Cmdable, ttl time.Duration) Option {
	return func(h *HandleCache) {
		h.rdb = rdb
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

func WithRepository(repo HandleRepository) Option {
	return func(h *HandleCache) { h.repo = repo }
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *HandleCache) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandleCache(loader Loader, uploader Uploader, opts ...Option) *HandleCache {
	h := &HandleCache{
		ttl:      defaultTTL,
		loader:   loader,
		uploader: uploader,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.local = ca.New(h.ttl, 2*h.ttl)
	return h
}

func (h *HandleCache) GetOrUpload(ctx context.Context, key, contentRef string) (string, error) {
	if v, ok := h.local.Get(key); ok {
		metrics.RecordHandleLookup("local")
		return v.(string), nil
	}

	if h.rdb != nil {
		v, err := h.rdb.Get(ctx, redisKeyPrefix+key).Result()
		switch {
		case err == nil && v != "":
			metrics.RecordHandleLookup("redis")
			h.local.SetDefault(key, v)
			return v, nil
		case err != nil && !errors.Is(err, redis.Nil):
			h.logger.Warn("handle cache redis read failed", zap.String("key", key), zap.Error(err))
		}
	}

	if h.repo != nil {
		v, err := h.repo.FindHandle(ctx, key)
		if err != nil {
			h.logger.Warn("handle lookup in database failed", zap.String("key", key), zap.Error(err))
		} else if v != "" {
			metrics.RecordHandleLookup("database")
			h.remember(ctx, key, v)
			return v, nil
		}
	}

	if contentRef == "" {
		return "", errors.WithMessagef(errs.ErrUpload, "no media reference for %s", key)
	}
	f, err := h.loader.Load(ctx, contentRef)
	if err != nil {
		return "", errors.WithMessagef(errs.ErrUpload, "load %s: %v", contentRef, err)
	}
	handle, err := h.uploader.UploadResumable(ctx, f.Name, f.MimeType, f.Data)
	if err != nil {
		return "", errors.WithMessagef(errs.ErrUpload, "upload %s: %v", contentRef, err)
	}
	metrics.RecordHandleLookup("upload")

	if h.repo != nil {
		if err := h.repo.SaveHandle(ctx, key, handle); err != nil {
			h.logger.Warn("persist uploaded handle failed", zap.String("key", key), zap.Error(err))
		}
	}
	h.remember(ctx, key, handle)
	return handle, nil
}

// Forget drops key from the cache tiers; the persisted handle is left alone.
func (h *HandleCache) Forget(ctx context.Context, key string) {
	h.local.Delete(key)
	if h.rdb != nil {
		if err := h.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
			h.logger.Warn("handle cache redis delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (h *HandleCache) remember(ctx context.Context, key, handle string) {
	h.local.SetDefault(key, handle)
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Set(ctx, redisKeyPrefix+key, handle, h.ttl).Err(); err != nil {
		h.logger.Warn("handle cache redis write failed", zap.String("key", key), zap.Error(err))
	}
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// 合并后的回源不跟随任何一个调用方的请求上下文，只受这个超时约束
const defaultLoadTimeout = 5 * time.Second

type Cache struct {
	RDB         *redis.Client
	sf          singleflight.Group
	LoadTimeout time.Duration
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB:         redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		LoadTimeout: defaultLoadTimeout,
	}
}

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	// 先读缓存；redis 不可用时直接回源
	if b, err := c.RDB.Get(ctx, key).Bytes(); err == nil {
		return b, nil
	}
	// single flight 合并回源；第一个调用方断开不影响其它等待者
	v, err, _ := c.sf.Do(key, func() (any, error) {
		timeout := c.LoadTimeout
		if timeout <= 0 {
			timeout = defaultLoadTimeout
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		b, e := load(lctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(lctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Version 读取版本号；不存在时为 0
func (c *Cache) Version(ctx context.Context, key string) (int64, error) {
	n, err := c.RDB.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump 版本号 +1。数据 key 带上版本号后，
// bump 之前开始的回源只会写进旧版本的 key，之后没人再读
func (c *Cache) Bump(ctx context.Context, key string) error {
	return c.RDB.Incr(ctx, key).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrMiss el valor no está en ningún nivel
var ErrMiss = errors.New("cache miss")

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache caché multi-nivel: L1 en memoria, L2 en Redis.
// Sin cliente Redis solo se usa L1.
type Cache[T any] struct {
	prefix string

	l1Cache map[int]entry[T]
	l1Mutex sync.RWMutex

	redisClient *redis.Client

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64

	stop chan struct{}
	once sync.Once
}

// New crea un caché para claves "<prefix>:<id>"
func New[T any](prefix string, redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *Cache[T] {
	c := &Cache[T]{
		prefix:      prefix,
		l1Cache:     make(map[int]entry[T]),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
		stop:        make(chan struct{}),
	}

	go c.cleanupL1Cache(time.Minute)

	return c
}

// Close detiene la limpieza periódica
func (c *Cache[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// Prefix prefijo de claves de este caché
func (c *Cache[T]) Prefix() string {
	return c.prefix
}

// GetStats retorna estadísticas del caché
func (c *Cache[T]) GetStats() CacheStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()

	c.l1Mutex.RLock()
	totalKeys := len(c.l1Cache)
	c.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          c.hits,
		Misses:        c.misses,
		TotalRequests: c.hits + c.misses,
		TotalKeys:     totalKeys,
	}
}

// Get busca primero en L1 y luego en L2; un hit en L2 se promueve a L1
func (c *Cache[T]) Get(ctx context.Context, id int) (T, error) {
	start := time.Now()

	if value, ok := c.getFromL1(id); ok {
		c.recordHit()
		c.logger.Debug("L1 cache hit", zap.String("key", c.key(id)), zap.Duration("latency", time.Since(start)))
		return value, nil
	}

	if value, err := c.getFromL2(ctx, id); err == nil {
		c.setToL1(id, value)
		c.recordHit()
		c.logger.Debug("L2 cache hit", zap.String("key", c.key(id)), zap.Duration("latency", time.Since(start)))
		return value, nil
	}

	c.recordMiss()
	c.logger.Debug("Cache miss", zap.String("key", c.key(id)), zap.Duration("latency", time.Since(start)))

	var zero T
	return zero, ErrMiss
}

// Set almacena en ambos niveles
func (c *Cache[T]) Set(ctx context.Context, id int, value T) error {
	c.setToL1(id, value)
	return c.setToL2(ctx, id, value)
}

// Invalidate elimina la clave en ambos niveles
func (c *Cache[T]) Invalidate(ctx context.Context, id int) error {
	c.l1Mutex.Lock()
	delete(c.l1Cache, id)
	c.l1Mutex.Unlock()

	if c.redisClient == nil {
		return nil
	}
	return c.redisClient.Del(ctx, c.key(id)).Err()
}

// Clear vacía L1 y elimina en L2 todas las claves del prefijo
func (c *Cache[T]) Clear(ctx context.Context) error {
	c.l1Mutex.Lock()
	c.l1Cache = make(map[int]entry[T])
	c.l1Mutex.Unlock()

	if c.redisClient == nil {
		return nil
	}

	iter := c.redisClient.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	c.logger.Debug("Cache cleared", zap.String("prefix", c.prefix), zap.Int("l2_keys", len(keys)))
	return c.redisClient.Del(ctx, keys...).Err()
}

func (c *Cache[T]) key(id int) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}

func (c *Cache[T]) recordHit() {
	c.statsMutex.Lock()
	c.hits++
	c.statsMutex.Unlock()
}

func (c *Cache[T]) recordMiss() {
	c.statsMutex.Lock()
	c.misses++
	c.statsMutex.Unlock()
}

func (c *Cache[T]) getFromL1(id int) (T, bool) {
	c.l1Mutex.RLock()
	defer c.l1Mutex.RUnlock()

	e, ok := c.l1Cache[id]
	if !ok || time.Now().After(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (c *Cache[T]) setToL1(id int, value T) {
	c.l1Mutex.Lock()
	defer c.l1Mutex.Unlock()

	if _, exists := c.l1Cache[id]; !exists && len(c.l1Cache) >= c.maxL1Size {
		c.evictOne()
	}

	c.l1Cache[id] = entry[T]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// evictOne elimina la entrada más próxima a expirar
func (c *Cache[T]) evictOne() {
	var (
		victim int
		oldest time.Time
		found  bool
	)
	for id, e := range c.l1Cache {
		if !found || e.expiresAt.Before(oldest) {
			victim, oldest, found = id, e.expiresAt, true
		}
	}
	if found {
		delete(c.l1Cache, victim)
	}
}

func (c *Cache[T]) getFromL2(ctx context.Context, id int) (T, error) {
	var value T
	if c.redisClient == nil {
		return value, ErrMiss
	}

	data, err := c.redisClient.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return value, err
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, err
	}
	return value, nil
}

func (c *Cache[T]) setToL2(ctx context.Context, id int, value T) error {
	if c.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.redisClient.Set(ctx, c.key(id), data, c.ttl).Err()
}

// cleanupL1Cache elimina periódicamente las entradas expiradas de L1
func (c *Cache[T]) cleanupL1Cache(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.l1Mutex.Lock()
			for id, e := range c.l1Cache {
				if now.After(e.expiresAt) {
					delete(c.l1Cache, id)
				}
			}
			items := len(c.l1Cache)
			c.l1Mutex.Unlock()

			c.logger.Debug("L1 cache cleanup", zap.String("prefix", c.prefix), zap.Int("items", items))
		case <-c.stop:
			return
		}
	}
}

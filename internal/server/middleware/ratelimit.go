package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/escrutinio/internal/server/handlers"
)

// Limit максимальное количество запросов за окно
type Limit struct {
	Rate   int
	Window time.Duration
}

// BucketStore хранилище токен-бакетов.
// Реализация в памяти используется по умолчанию; интерфейс позволяет
// вынести состояние во внешнее хранилище при нескольких инстансах.
type BucketStore interface {
	// Take списывает токен из бакета key, создавая его при необходимости
	Take(key string, limit Limit, now time.Time) bool
	// Evict удаляет бакеты, не пополнявшиеся дольше idle; возвращает их число
	Evict(idle time.Duration, now time.Time) int
	// Reset удаляет бакет key
	Reset(key string)
}

// bucket представляет bucket для конкретного ключа
type bucket struct {
	lastRefill time.Time
	tokens     int
}

// MemoryBucketStore хранит бакеты в памяти процесса
type MemoryBucketStore struct {
	buckets map[string]*bucket
	mu      sync.Mutex
}

// NewMemoryBucketStore создает пустое хранилище бакетов
func NewMemoryBucketStore() *MemoryBucketStore {
	return &MemoryBucketStore{buckets: make(map[string]*bucket)}
}

// Take implements BucketStore
func (s *MemoryBucketStore) Take(key string, limit Limit, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: limit.Rate, lastRefill: now}
		s.buckets[key] = b
	}

	// Пополняем токены по истечении окна
	if now.Sub(b.lastRefill) >= limit.Window {
		b.tokens = limit.Rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Evict implements BucketStore
func (s *MemoryBucketStore) Evict(idle time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, b := range s.buckets {
		if now.Sub(b.lastRefill) > idle {
			delete(s.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Reset implements BucketStore
func (s *MemoryBucketStore) Reset(key string) {
	s.mu.Lock()
	delete(s.buckets, key)
	s.mu.Unlock()
}

// Len возвращает количество бакетов
func (s *MemoryBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimiter ограничивает частоту запросов с лимитами по ролям.
// Ключ - пользователь из токена, для анонимных запросов - IP.
type RateLimiter struct {
	store        BucketStore
	logger       *slog.Logger
	limits       map[string]Limit
	now          func() time.Time
	defaultLimit Limit
}

// NewRateLimiter создает rate limiter.
// limits - лимиты по ролям, defaultLimit - для ролей вне списка и анонимных запросов.
func NewRateLimiter(store BucketStore, limits map[string]Limit, defaultLimit Limit, logger *slog.Logger) *RateLimiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &RateLimiter{
		store:        store,
		limits:       limits,
		defaultLimit: defaultLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// LimitFor возвращает лимит роли
func (rl *RateLimiter) LimitFor(role string) Limit {
	if l, ok := rl.limits[role]; ok {
		return l
	}
	return rl.defaultLimit
}

// Allow проверяет, разрешен ли запрос для ключа с данной ролью
func (rl *RateLimiter) Allow(key, role string) bool {
	return rl.store.Take(bucketKey(key, role), rl.LimitFor(role), rl.now())
}

// Reset сбрасывает бакет ключа
func (rl *RateLimiter) Reset(key, role string) {
	rl.store.Reset(bucketKey(key, role))
}

// Evict удаляет бакеты, простаивающие дольше idle
func (rl *RateLimiter) Evict(idle time.Duration) int {
	return rl.store.Evict(idle, rl.now())
}

// maxWindow наибольшее окно среди всех лимитов
func (rl *RateLimiter) maxWindow() time.Duration {
	w := rl.defaultLimit.Window
	for _, l := range rl.limits {
		if l.Window > w {
			w = l.Window
		}
	}
	return w
}

// Run периодически удаляет неактивные бакеты до отмены ctx
func (rl *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	idle := rl.maxWindow() * 2
	for {
		select {
		case <-ticker.C:
			if n := rl.Evict(idle); n > 0 {
				rl.logger.Debug("Evicted idle rate limit buckets", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Middleware создает middleware ограничения частоты.
// Ставится после AuthMiddleware, чтобы лимит выбирался по роли.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, role := getClientIP(r), ""
			if actor, ok := handlers.GetActor(r.Context()); ok {
				key, role = actor.UserID, actor.Role
			}

			if !rl.Allow(key, role) {
				rl.logger.Warn("Rate limit exceeded",
					"key", key,
					"role", role,
					"method", r.Method,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", retryAfter(rl.LimitFor(role).Window))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bucketKey(key, role string) string {
	return role + "|" + key
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	// Берем первый IP из списка (реальный клиент)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/config"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	intentBreakerName      = "intent-store"
	defaultLookupTimeout   = 2 * time.Second
	defaultBreakerRequests = 20
	defaultBreakerRatio    = 0.6
	defaultBreakerTimeout  = 30 * time.Second
)

// ErrMalformedCounter is returned when an intent key holds something that is
// not an integer. It fails the lookup for that SKU only.
var ErrMalformedCounter = errors.New("malformed intent counter")

// BreakerStateHook is notified whenever the intent breaker changes state.
type BreakerStateHook func(name string, to gobreaker.State)

type redisIntentStore struct {
	client         redis.UniversalClient
	cartPrefix     string
	wishlistPrefix string
	timeout        time.Duration
	breaker        *gobreaker.CircuitBreaker[domain.IntentSignal]
}

// NewIntentStore creates the redis-backed intent store. Counters live under
// <cart prefix><sku> and <wishlist prefix><sku>; a missing key reads as zero.
func NewIntentStore(client redis.UniversalClient, cfg config.IntentConfig, onState BreakerStateHook) *redisIntentStore {
	cartPrefix := cfg.CartKeyPrefix
	if cartPrefix == "" {
		cartPrefix = "cart:"
	}
	wishlistPrefix := cfg.WishlistKeyPrefix
	if wishlistPrefix == "" {
		wishlistPrefix = "wishlist:"
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	minRequests := cfg.BreakerMinRequests
	if minRequests == 0 {
		minRequests = defaultBreakerRequests
	}
	ratio := cfg.BreakerFailureRatio
	if ratio <= 0 || ratio > 1 {
		ratio = defaultBreakerRatio
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = defaultBreakerTimeout
	}

	breaker := gobreaker.NewCircuitBreaker[domain.IntentSignal](gobreaker.Settings{
		Name:        intentBreakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		// A bad value under one key says nothing about redis health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMalformedCounter)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("intent store: breaker state changed")
			if onState != nil {
				onState(name, to)
			}
		},
	})

	return &redisIntentStore{
		client:         client,
		cartPrefix:     cartPrefix,
		wishlistPrefix: wishlistPrefix,
		timeout:        timeout,
		breaker:        breaker,
	}
}

func (s *redisIntentStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// GetIntent reads both counters for a SKU in one round trip.
func (s *redisIntentStore) GetIntent(ctx context.Context, sku string) (domain.IntentSignal, error) {
	signal, err := s.breaker.Execute(func() (domain.IntentSignal, error) {
		return s.lookup(ctx, sku)
	})
	if err != nil {
		return domain.IntentSignal{}, fmt.Errorf("intent lookup for %s: %w", sku, err)
	}
	return signal, nil
}

func (s *redisIntentStore) lookup(ctx context.Context, sku string) (domain.IntentSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.client.Pipeline()
	cartCmd := pipe.Get(ctx, s.cartPrefix+sku)
	wishCmd := pipe.Get(ctx, s.wishlistPrefix+sku)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return domain.IntentSignal{}, fmt.Errorf("redis pipeline failed: %w", err)
	}

	cart, err := readCounter(cartCmd)
	if err != nil {
		return domain.IntentSignal{}, fmt.Errorf("%s%s: %w", s.cartPrefix, sku, err)
	}
	wish, err := readCounter(wishCmd)
	if err != nil {
		return domain.IntentSignal{}, fmt.Errorf("%s%s: %w", s.wishlistPrefix, sku, err)
	}

	return domain.IntentSignal{CartCount7d: cart, WishlistCount30d: wish}, nil
}

// readCounter is the single place where a missing key becomes zero. Negative
// counters are clamped to zero as well.
func readCounter(cmd *redis.StringCmd) (int, error) {
	raw, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCounter, raw)
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

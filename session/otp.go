package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

const otpTTL = 5 * time.Minute

// OTPStore keeps the outstanding one-time codes. Delivery is simulated; the
// contract is only "produces a 4-digit code and reports delivery", not a
// real security control.
type OTPStore interface {
	Put(ctx context.Context, phone, code string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

// RedisOTPStore parks codes in Redis with a TTL, next to the refresh tokens.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func otpKey(phone string) string { return "otp:" + phone }

func (s *RedisOTPStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(phone), code, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, phone string) (string, error) {
	code, err := s.client.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}

// MemoryOTPStore is the in-process variant used in development and tests.
type MemoryOTPStore struct {
	codes map[string]memoryOTP
}

type memoryOTP struct {
	code    string
	expires time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: map[string]memoryOTP{}}
}

func (s *MemoryOTPStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	s.codes[phone] = memoryOTP{code: code, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Get(ctx context.Context, phone string) (string, error) {
	entry, ok := s.codes[phone]
	if !ok || time.Now().After(entry.expires) {
		return "", nil
	}
	return entry.code, nil
}

func (s *MemoryOTPStore) Delete(ctx context.Context, phone string) error {
	delete(s.codes, phone)
	return nil
}

// generateOTP draws a uniformly random 4-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

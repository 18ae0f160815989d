package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"refeera/pkg/platform/sentinel"
)

// consumeScript deletes the code when it matches. A miss bumps the attempts
// counter, which shares the code's TTL, and burns the code once the counter
// reaches ARGV[2]. Returns 1 on match, 0 on mismatch, -2 when the mismatch
// burned the code and -1 when the key is absent.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
  return -1
end
if v == ARGV[1] then
  redis.call("DEL", KEYS[1], KEYS[2])
  return 1
end
local n = redis.call("INCR", KEYS[2])
local ttl = redis.call("PTTL", KEYS[1])
if ttl > 0 then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
if n >= tonumber(ARGV[2]) then
  redis.call("DEL", KEYS[1], KEYS[2])
  return -2
end
return 0
`)

// RedisOTPStore keeps codes in Redis with a native TTL so expiry needs no
// sweeper and codes survive restarts.
type RedisOTPStore struct {
	client redis.Cmdable
}

func NewRedisOTPStore(client redis.Cmdable) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, purpose OTPPurpose, accountID, code string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, otpKey(purpose, accountID), code, ttl)
		pipe.Del(ctx, otpAttemptsKey(purpose, accountID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, purpose OTPPurpose, accountID, code string) error {
	keys := []string{otpKey(purpose, accountID), otpAttemptsKey(purpose, accountID)}
	res, err := consumeScript.Run(ctx, s.client, keys, code, MaxOTPAttempts).Int()
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0, -2:
		return sentinel.ErrMismatch
	default:
		return sentinel.ErrNotFound
	}
}

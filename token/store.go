package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store errors. The root package maps these onto its public sentinels.
var (
	ErrRecordNotFound = errors.New("token record not found")
	ErrRecordCorrupt  = errors.New("token record corrupt")
	ErrUnavailable    = errors.New("redis unavailable")
)

const (
	invalidateStatusNotFound       = 0
	invalidateStatusFlipped        = 1
	invalidateStatusCorrupt        = 2
	invalidateStatusAlreadyInvalid = 3
)

// invalidateFetchLua reads the record, flips it invalid in place while
// preserving the remaining TTL, and returns the prior payload. Running as
// one script makes the read-flip-write atomic: of any number of concurrent
// callers on the same key, exactly one gets status 1.
//
// A PTTL <= 0 means the key is persistent or mid-expiry; the rewrite then
// omits PX rather than resurrect the key with a fresh TTL.
var invalidateFetchLua = redis.NewScript(`
local blob = redis.call("GET", KEYS[1])
if not blob then
	return {0}
end

local ok, rec = pcall(cjson.decode, blob)
if not ok or type(rec) ~= "table" or rec.subjectId == nil or rec.expiresAt == nil or type(rec.valid) ~= "boolean" then
	return {2, blob}
end

if rec.valid then
	rec.valid = false
	local ttl = redis.call("PTTL", KEYS[1])
	if ttl > 0 then
		redis.call("SET", KEYS[1], cjson.encode(rec), "PX", ttl)
	else
		redis.call("SET", KEYS[1], cjson.encode(rec))
	end
	return {1, blob}
end

return {3, blob}
`)

// Store persists refresh-token records in Redis under
// prefix:token:suffix keys.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	suffix string
}

// NewStore wraps an existing Redis client. Empty prefix or suffix fall
// back to "rt" and "meta".
func NewStore(client redis.UniversalClient, prefix, suffix string) *Store {
	if prefix == "" {
		prefix = "rt"
	}
	if suffix == "" {
		suffix = "meta"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		suffix: suffix,
	}
}

// Key returns the Redis key for an opaque token. Exposed so operational
// tooling can locate records; application code never needs it.
func (s *Store) Key(token string) string {
	return s.prefix + ":" + token + ":" + s.suffix
}

// Put writes the record under the token's key. The physical TTL is the
// smaller of ttl and the time remaining until the record's ExpiresAt, so
// Redis can never outlive the logical expiry.
func (s *Store) Put(ctx context.Context, token string, rec *Record, ttl time.Duration) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrRecordCorrupt)
	}
	if remaining := time.Until(rec.ExpiresAt); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: record already expired", ErrRecordCorrupt)
	}

	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.Key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get reads and decodes the record for a token. Absence is
// ErrRecordNotFound; an undecodable payload is ErrRecordCorrupt.
func (s *Store) Get(ctx context.Context, token string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.Key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.Join(redis.Nil, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return DecodeRecord(data)
}

// Delete removes the record. Reports whether a record existed.
func (s *Store) Delete(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Del(ctx, s.Key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// InvalidateAndFetchPrevious atomically marks the token's record invalid
// and returns the state it had before the call. The returned record's
// Valid field tells the caller whether it won the flip: true means this
// call performed the invalidation, false means some earlier call did.
//
// The flip is one-way and the remaining TTL is preserved exactly, so the
// invalidated record stays observable for reuse detection until Redis
// reaps it.
func (s *Store) InvalidateAndFetchPrevious(ctx context.Context, token string) (*Record, error) {
	res, err := invalidateFetchLua.Run(ctx, s.redis, []string{s.Key(token)}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	arr, ok := res.([]interface{})
	if len(arr) == 0 || !ok {
		return nil, fmt.Errorf("%w: unexpected script reply %T", ErrUnavailable, res)
	}

	status, ok := arr[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected script status %T", ErrUnavailable, arr[0])
	}

	switch status {
	case invalidateStatusNotFound:
		return nil, errors.Join(redis.Nil, ErrRecordNotFound)
	case invalidateStatusCorrupt:
		return nil, fmt.Errorf("%w: undecodable payload", ErrRecordCorrupt)
	case invalidateStatusFlipped, invalidateStatusAlreadyInvalid:
		if len(arr) < 2 {
			return nil, fmt.Errorf("%w: script reply missing payload", ErrUnavailable)
		}
		blob, ok := arr[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected script payload %T", ErrUnavailable, arr[1])
		}
		return DecodeRecord([]byte(blob))
	default:
		return nil, fmt.Errorf("%w: unknown script status %d", ErrUnavailable, status)
	}
}

// TTL returns the remaining physical lifetime of a token's key.
func (s *Store) TTL(ctx context.Context, token string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, s.Key(token)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return d, nil
}

// Ping checks connectivity and reports round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

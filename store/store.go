package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when no record exists for the given value.
	ErrNotFound = errors.New("credential record not found")

	// ErrExpired is returned when the record is past its deadline. The
	// record is purged as a side effect of detecting expiry.
	ErrExpired = errors.New("credential record expired")

	// ErrCorruptRecord is returned when a stored blob fails to parse. The
	// blob is purged.
	ErrCorruptRecord = errors.New("credential record corrupt")

	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	statusNotFound int64 = 0
	statusExpired  int64 = 1
	statusOK       int64 = 2
	statusCorrupt  int64 = 3
)

// luaRecordHelpers parses the binary record layout documented in record.go.
// Prepended to every script that needs to read a record server-side.
const luaRecordHelpers = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local function parse_record(data)
  local version = string.byte(data, 1)
  if version ~= 1 then
    return nil
  end
  local expires_at = read_be64(data, 2)
  if not expires_at then
    return nil
  end
  local hi = string.byte(data, 10)
  local lo = string.byte(data, 11)
  if not lo then
    return nil
  end
  local id_len = hi * 256 + lo
  if #data < 11 + id_len then
    return nil
  end
  return {
    user_id = string.sub(data, 12, 11 + id_len),
    expires_at = expires_at
  }
end
`

// putScript replaces the owner's previous credential and writes the new one
// in a single atomic step.
//
// KEYS[1] owner pointer key
// ARGV[1] value key prefix, ARGV[2] value, ARGV[3] record, ARGV[4] ttl ms
const putScript = `
local old = redis.call("GET", KEYS[1])
if old and old ~= ARGV[2] then
  redis.call("DEL", ARGV[1] .. old)
end
redis.call("SET", ARGV[1] .. ARGV[2], ARGV[3], "PX", ARGV[4])
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[4])
return 1
`

// takeScript is the single read-modify-delete behind consume. It deletes the
// record on every outcome except not-found, so a concurrent duplicate
// consumption is impossible.
//
// KEYS[1] value key
// ARGV[1] owner pointer prefix, ARGV[2] now unix, ARGV[3] value
const takeScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local rec = parse_record(data)
if not rec then
  redis.call("DEL", KEYS[1])
  return {3}
end

local owner_key = ARGV[1] .. rec.user_id
redis.call("DEL", KEYS[1])
if redis.call("GET", owner_key) == ARGV[3] then
  redis.call("DEL", owner_key)
end

if tonumber(ARGV[2]) >= rec.expires_at then
  return {1}
end

return {2, rec.user_id}
`

// peekScript resolves a value to its owner without consuming it, purging the
// record only when it turns out expired or corrupt. Same KEYS/ARGV shape as
// takeScript.
const peekScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local rec = parse_record(data)
if not rec then
  redis.call("DEL", KEYS[1])
  return {3}
end

local owner_key = ARGV[1] .. rec.user_id

if tonumber(ARGV[2]) >= rec.expires_at then
  redis.call("DEL", KEYS[1])
  if redis.call("GET", owner_key) == ARGV[3] then
    redis.call("DEL", owner_key)
  end
  return {1}
end

return {2, rec.user_id}
`

// dropScript removes a record and its owner pointer. Absence is not an
// error; the reply only reports whether anything existed.
const dropScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end

redis.call("DEL", KEYS[1])

local rec = parse_record(data)
if rec then
  local owner_key = ARGV[1] .. rec.user_id
  if redis.call("GET", owner_key) == ARGV[2] then
    redis.call("DEL", owner_key)
  end
end
return 1
`

var (
	putLua  = redis.NewScript(putScript)
	takeLua = redis.NewScript(luaRecordHelpers + takeScript)
	peekLua = redis.NewScript(luaRecordHelpers + peekScript)
	dropLua = redis.NewScript(luaRecordHelpers + dropScript)
)

// Store holds both credential record kinds under a shared key namespace.
// It is safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New creates a Store on the given Redis client. prefix namespaces all keys.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ac"
	}
	return &Store{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

// WithClock replaces the store's clock. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) codeKeyPrefix() string    { return s.prefix + ":lc:" }
func (s *Store) codeOwnerPrefix() string  { return s.prefix + ":lu:" }
func (s *Store) tokenKeyPrefix() string   { return s.prefix + ":rt:" }
func (s *Store) tokenOwnerPrefix() string { return s.prefix + ":ru:" }

// Ping reports point-in-time Redis availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, ownerKey, valuePrefix, value string, userID string, expiresAt time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	data, err := encodeRecord(&record{UserID: userID, ExpiresAt: expiresAt.Unix()})
	if err != nil {
		return err
	}

	if err := putLua.Run(ctx, s.redis, []string{ownerKey}, valuePrefix, value, data, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// resolve runs one of the lookup scripts and maps its status reply to the
// package sentinels.
func (s *Store) resolve(ctx context.Context, script *redis.Script, valueKey, ownerPrefix, value string) (string, error) {
	result, err := script.Run(ctx, s.redis, []string{valueKey}, ownerPrefix, s.now().Unix(), value).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("%w: invalid script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return "", fmt.Errorf("%w: invalid script status", ErrRedisUnavailable)
	}

	switch code {
	case statusNotFound:
		return "", ErrNotFound
	case statusExpired:
		return "", ErrExpired
	case statusCorrupt:
		return "", ErrCorruptRecord
	case statusOK:
		if len(parts) < 2 {
			return "", fmt.Errorf("%w: missing script payload", ErrRedisUnavailable)
		}
		switch v := parts[1].(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return "", fmt.Errorf("%w: invalid script payload", ErrRedisUnavailable)
		}
	default:
		return "", fmt.Errorf("%w: unknown script status", ErrRedisUnavailable)
	}
}

func (s *Store) drop(ctx context.Context, valueKey, ownerPrefix, value string) error {
	if err := dropLua.Run(ctx, s.redis, []string{valueKey}, ownerPrefix, value).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

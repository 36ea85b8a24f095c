package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"scribekit/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - writer:{id}:xp -> int64 (atomic XP counter)
// - writer:{id}:meta -> hash {level, streak, last_write}
// - writer:{id}:content -> list of ContentItem JSON blobs
// - writer:{id}:badges -> set of unlocked badge ids
// - writer:{id}:profile -> JSON cache of the assembled Profile
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func xpKey(writer core.WriterID) string      { return fmt.Sprintf("writer:%s:xp", writer) }
func metaKey(writer core.WriterID) string    { return fmt.Sprintf("writer:%s:meta", writer) }
func contentKey(writer core.WriterID) string { return fmt.Sprintf("writer:%s:content", writer) }
func badgesKey(writer core.WriterID) string  { return fmt.Sprintf("writer:%s:badges", writer) }
func profileKey(writer core.WriterID) string { return fmt.Sprintf("writer:%s:profile", writer) }

// Lua script for atomic XP addition with overflow protection. XP is the one
// counter that must be incremented atomically at the storage layer; every
// other value the engine writes is derived and fully recomputed.
var addXPScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])
	local current = tonumber(redis.call('GET', key) or '0')
	local next_val = current + delta

	if next_val > 9223372036854775807 or next_val < -9223372036854775808 then
		return redis.error_reply('integer overflow')
	end

	redis.call('SET', key, next_val)
	return next_val
`)

// AddXP atomically adds XP with overflow protection
func (s *Store) AddXP(ctx context.Context, writer core.WriterID, delta int64) (int64, error) {
	if delta == 0 {
		return 0, errors.New("delta cannot be zero")
	}

	result, err := addXPScript.Run(ctx, s.client, []string{xpKey(writer)}, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}

	total, ok := result.(int64)
	if !ok {
		return 0, errors.New("unexpected result type from Redis script")
	}

	s.invalidateProfileCache(ctx, writer)
	return total, nil
}

// Profile retrieves the assembled writer profile, using cache when possible
func (s *Store) Profile(ctx context.Context, writer core.WriterID) (core.Profile, error) {
	cached, err := s.cachedProfile(ctx, writer)
	if err == nil {
		return cached, nil
	}

	prof, err := s.buildProfile(ctx, writer)
	if err != nil {
		return core.Profile{}, err
	}

	// Update cache (best-effort); keep it synchronous for determinism.
	ctxCache, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	_ = s.updateProfileCache(ctxCache, writer, prof)

	return prof, nil
}

// SetLevel sets the writer's stored level
func (s *Store) SetLevel(ctx context.Context, writer core.WriterID, level int64) error {
	if err := s.client.HSet(ctx, metaKey(writer), "level", level).Err(); err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}
	s.invalidateProfileCache(ctx, writer)
	return nil
}

// SetStreak sets the writer's stored streak and last write date
func (s *Store) SetStreak(ctx context.Context, writer core.WriterID, streak int, lastWrite time.Time) error {
	fields := map[string]any{"streak": streak}
	if !lastWrite.IsZero() {
		fields["last_write"] = lastWrite.UTC().Format(time.RFC3339Nano)
	}
	if err := s.client.HSet(ctx, metaKey(writer), fields).Err(); err != nil {
		return fmt.Errorf("failed to set streak: %w", err)
	}
	s.invalidateProfileCache(ctx, writer)
	return nil
}

// AddContent appends a story snapshot to the writer's history
func (s *Store) AddContent(ctx context.Context, writer core.WriterID, item core.ContentItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, contentKey(writer), data).Err(); err != nil {
		return fmt.Errorf("failed to add content: %w", err)
	}
	return nil
}

// ContentItems returns the writer's history ordered by creation time
func (s *Store) ContentItems(ctx context.Context, writer core.WriterID) ([]core.ContentItem, error) {
	blobs, err := s.client.LRange(ctx, contentKey(writer), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	items := make([]core.ContentItem, 0, len(blobs))
	for _, b := range blobs {
		var item core.ContentItem
		if err := json.Unmarshal([]byte(b), &item); err != nil {
			continue // Skip invalid entries
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// UnlockedBadges returns the set of badges already marked unlocked
func (s *Store) UnlockedBadges(ctx context.Context, writer core.WriterID) (map[core.BadgeID]struct{}, error) {
	members, err := s.client.SMembers(ctx, badgesKey(writer)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read badges: %w", err)
	}
	out := make(map[core.BadgeID]struct{}, len(members))
	for _, m := range members {
		out[core.BadgeID(m)] = struct{}{}
	}
	return out, nil
}

// MarkUnlocked adds a badge to the writer's unlocked set
func (s *Store) MarkUnlocked(ctx context.Context, writer core.WriterID, badge core.BadgeID) error {
	if err := s.client.SAdd(ctx, badgesKey(writer), string(badge)).Err(); err != nil {
		return fmt.Errorf("failed to mark badge: %w", err)
	}
	s.invalidateProfileCache(ctx, writer)
	return nil
}

func (s *Store) cachedProfile(ctx context.Context, writer core.WriterID) (core.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(writer)).Bytes()
	if err != nil {
		return core.Profile{}, err
	}
	var prof core.Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return core.Profile{}, err
	}
	return prof, nil
}

func (s *Store) updateProfileCache(ctx context.Context, writer core.WriterID, prof core.Profile) error {
	data, err := json.Marshal(prof)
	if err != nil {
		return err
	}
	// Cache for 5 minutes
	return s.client.Set(ctx, profileKey(writer), data, 5*time.Minute).Err()
}

func (s *Store) invalidateProfileCache(ctx context.Context, writer core.WriterID) {
	s.client.Del(ctx, profileKey(writer))
}

// buildProfile reconstructs the profile from individual Redis keys
func (s *Store) buildProfile(ctx context.Context, writer core.WriterID) (core.Profile, error) {
	prof := core.Profile{ID: writer, Level: 1, Updated: time.Now().UTC()}

	xp, err := s.client.Get(ctx, xpKey(writer)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.Profile{}, fmt.Errorf("failed to read xp: %w", err)
	}
	prof.XP = xp

	meta, err := s.client.HGetAll(ctx, metaKey(writer)).Result()
	if err != nil {
		return core.Profile{}, fmt.Errorf("failed to read meta: %w", err)
	}
	if v, ok := meta["level"]; ok {
		if lvl, err := parseInt(v); err == nil && lvl >= 1 {
			prof.Level = lvl
		}
	}
	if v, ok := meta["streak"]; ok {
		if streak, err := parseInt(v); err == nil {
			prof.WritingStreak = int(streak)
		}
	}
	if v, ok := meta["last_write"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			prof.LastWriteDate = ts
		}
	}
	return prof, nil
}

func parseInt(s string) (int64, error) {
	var v int64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

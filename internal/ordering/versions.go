package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-content/internal/content"
)

// Versioner hands out a monotonically increasing version per sibling group.
// A reorder bumps the version; clients echo it back to detect stale views.
type Versioner interface {
	Version(ctx context.Context, g content.SiblingGroup) (int64, error)
	Bump(ctx context.Context, g content.SiblingGroup) (int64, error)
}

// MemoryVersions keeps group versions in process memory.
type MemoryVersions struct {
	mu       sync.Mutex
	versions map[string]int64
}

// NewMemoryVersions creates an empty in-memory versioner.
func NewMemoryVersions() *MemoryVersions {
	return &MemoryVersions{versions: make(map[string]int64)}
}

func (m *MemoryVersions) Version(_ context.Context, g content.SiblingGroup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[g.Key()], nil
}

func (m *MemoryVersions) Bump(_ context.Context, g content.SiblingGroup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[g.Key()]++
	return m.versions[g.Key()], nil
}

const defaultVersionPrefix = "content:order:version:"

// RedisVersions stores group versions as Redis counters so every server
// instance sees the same token.
type RedisVersions struct {
	client *redis.Client
	prefix string
}

// NewRedisVersions creates a Redis-backed versioner. An empty prefix uses
// the default key namespace.
func NewRedisVersions(client *redis.Client, prefix string) (*RedisVersions, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if prefix == "" {
		prefix = defaultVersionPrefix
	}
	return &RedisVersions{client: client, prefix: prefix}, nil
}

func (r *RedisVersions) key(g content.SiblingGroup) string {
	return r.prefix + g.Key()
}

// Version returns 0 for a group that has never been reordered.
func (r *RedisVersions) Version(ctx context.Context, g content.SiblingGroup) (int64, error) {
	v, err := r.client.Get(ctx, r.key(g)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get version %s: %w", g.Key(), err)
	}
	return v, nil
}

func (r *RedisVersions) Bump(ctx context.Context, g content.SiblingGroup) (int64, error) {
	v, err := r.client.Incr(ctx, r.key(g)).Result()
	if err != nil {
		return 0, fmt.Errorf("bump version %s: %w", g.Key(), err)
	}
	return v, nil
}

package attempt

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Stats describes the tracker backends. Redis fields are empty in memory mode
// or when redis could not be reached.
type Stats struct {
	Mode             Mode   `json:"mode"`
	Connected        bool   `json:"connected"`
	FallbackEntries  int    `json:"fallback_entries"`
	Keys             int64  `json:"keys,omitempty"`
	RedisVersion     string `json:"redis_version,omitempty"`
	UsedMemory       string `json:"used_memory,omitempty"`
	ConnectedClients string `json:"connected_clients,omitempty"`
	KeyspaceHits     string `json:"keyspace_hits,omitempty"`
	KeyspaceMisses   string `json:"keyspace_misses,omitempty"`
}

// statsReporter is implemented by stores that can describe themselves
type statsReporter interface {
	Stats(ctx context.Context) (Stats, error)
}

// Stats reports the configured mode, the in-process entry count and, when the
// primary supports it, the primary's own figures
func (t *Tracker) Stats(ctx context.Context) Stats {
	stats := Stats{Mode: t.Mode()}

	if reporter, ok := t.primary.(statsReporter); ok {
		primary, err := reporter.Stats(ctx)
		if err != nil {
			t.degraded("stats", err)
		} else {
			stats = primary
			stats.Mode = t.Mode()
			stats.Connected = true
		}
	} else if t.primary == nil {
		stats.Connected = true
	}

	stats.FallbackEntries = t.fallback.Len()
	return stats
}

// Len returns the number of live and not yet pruned entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters) + len(s.tokens)
}

// Stats reads DBSIZE and the server, memory, clients and stats INFO sections
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis dbsize: %w", err)
	}
	info, err := s.client.Info(ctx, "server", "memory", "clients", "stats").Result()
	if err != nil {
		return Stats{}, fmt.Errorf("redis info: %w", err)
	}

	fields := parseInfo(info)
	return Stats{
		Mode:             ModeRedis,
		Keys:             keys,
		RedisVersion:     fields["redis_version"],
		UsedMemory:       fields["used_memory_human"],
		ConnectedClients: fields["connected_clients"],
		KeyspaceHits:     fields["keyspace_hits"],
		KeyspaceMisses:   fields["keyspace_misses"],
	}, nil
}

// parseInfo reads the name:value lines of an INFO reply, skipping section headers
func parseInfo(info string) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[name] = value
	}
	return fields
}

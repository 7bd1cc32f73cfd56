package redis

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.Password != "" {
		t.Errorf("Password = %s, want empty", cfg.Password)
	}
	if cfg.DB != 0 {
		t.Errorf("DB = %d, want 0", cfg.DB)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want %v", cfg.DialTimeout, 5*time.Second)
	}
	if cfg.PoolSize != 10 {
		t.Errorf("PoolSize = %d, want 10", cfg.PoolSize)
	}
	if cfg.MinIdleConns != 2 {
		t.Errorf("MinIdleConns = %d, want 2", cfg.MinIdleConns)
	}
	if cfg.KeyPrefix != "negotiate:" {
		t.Errorf("KeyPrefix = %s, want negotiate:", cfg.KeyPrefix)
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	opts := []ConfigOption{
		WithAddress("redis.prod.example.com:6380"),
		WithPassword("production-secret"),
		WithDB(3),
		WithKeyPrefix("prod:negotiate:"),
		WithPoolSize(25),
		WithTimeouts(10*time.Second, 5*time.Second, 5*time.Second),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Address != "redis.prod.example.com:6380" {
		t.Errorf("Address = %s, want redis.prod.example.com:6380", cfg.Address)
	}
	if cfg.Password != "production-secret" {
		t.Errorf("Password = %s, want production-secret", cfg.Password)
	}
	if cfg.DB != 3 {
		t.Errorf("DB = %d, want 3", cfg.DB)
	}
	if cfg.KeyPrefix != "prod:negotiate:" {
		t.Errorf("KeyPrefix = %s, want prod:negotiate:", cfg.KeyPrefix)
	}
	if cfg.PoolSize != 25 {
		t.Errorf("PoolSize = %d, want 25", cfg.PoolSize)
	}
	if cfg.DialTimeout != 10*time.Second {
		t.Errorf("DialTimeout = %v, want 10s", cfg.DialTimeout)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v, want 5s", cfg.WriteTimeout)
	}
}

func TestConfigOption_OverrideOrder(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	opts := []ConfigOption{
		WithAddress("first.example.com:6379"),
		WithAddress("final.example.com:6379"),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	// Last option wins
	if cfg.Address != "final.example.com:6379" {
		t.Errorf("Address = %s, want final.example.com:6379", cfg.Address)
	}
}

func TestEventStoreKeys(t *testing.T) {
	t.Parallel()

	store := NewEventStoreFromClient(nil, "negotiate:")

	if got := store.eventsKey("s1"); got != "negotiate:events:s1" {
		t.Errorf("eventsKey = %s, want negotiate:events:s1", got)
	}
	if got := store.seqKey("s1"); got != "negotiate:seq:s1" {
		t.Errorf("seqKey = %s, want negotiate:seq:s1", got)
	}
	if got := store.channelKey("s1"); got != "negotiate:channel:s1" {
		t.Errorf("channelKey = %s, want negotiate:channel:s1", got)
	}
	if got := store.sessionsKey(); got != "negotiate:sessions" {
		t.Errorf("sessionsKey = %s, want negotiate:sessions", got)
	}
}

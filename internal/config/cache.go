package config

import "time"

// CacheConfig controls the Redis response cache on the public browse
// endpoints. Seat availability endpoints are never cached; only venue and
// event listings, which tolerate a short staleness window.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string // key namespace in Redis
	MaxBody int    // responses larger than this are not cached
}

// LoadCacheConfig reads cache settings from the environment.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled: envBool("BROWSE_CACHE_ENABLED", true),
		TTL:     envDur("BROWSE_CACHE_TTL", 30*time.Second),
		Prefix:  envStr("BROWSE_CACHE_PREFIX", "cache"),
		MaxBody: envInt("BROWSE_CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	return c
}

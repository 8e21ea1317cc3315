package config

import (
	"strings"
	"time"
)

// CacheConfig drives the Redis response cache in front of the public movie
// and hall listings.  Namespaces may override TTL: movie schedules change
// more often than halls do.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	TTLs         map[string]time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  CACHE_TTL_MOVIES and
// CACHE_TTL_HALLS override CACHE_TTL for their namespace.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		TTLs:         map[string]time.Duration{},
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	for _, ns := range []string{"movies", "halls"} {
		if d := envDur("CACHE_TTL_"+strings.ToUpper(ns), 0); d > 0 {
			cfg.TTLs[ns] = d
		}
	}
	return cfg
}

// TTLFor returns the expiry for entries under namespace, falling back to
// TTL and then to five minutes.
func (c CacheConfig) TTLFor(namespace string) time.Duration {
	if d, ok := c.TTLs[namespace]; ok && d > 0 {
		return d
	}
	if c.TTL > 0 {
		return c.TTL
	}
	return 5 * time.Minute
}

func methodSet(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			m[p] = true
		}
	}
	return m
}

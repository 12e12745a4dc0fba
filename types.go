package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterWithTime pairs a limiter with its last use so stale entries can
// be swept.
type RateLimiterWithTime struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

// App holds process-wide wiring for the HTTP surface. Game state lives in the
// stores, never here.
type App struct {
	IsProduction   bool
	StartTime      time.Time
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration
	LimiterMap     map[string]*RateLimiterWithTime
	LimiterMutex   sync.RWMutex
}

package api

import (
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

var lastTimestamp int64

// nextTimestamp returns strictly increasing nanosecond timestamps so events
// emitted within one request keep their order downstream.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

// nowRFC3339 stamps new records; lexical order of these values is
// chronological.
func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDur(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

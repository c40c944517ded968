package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterSweep(t *testing.T) {
	l := NewLimiter(1, 1)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.get("ip:a")
	now = now.Add(2 * time.Minute)
	l.get("ip:b")
	now = now.Add(2 * time.Minute)
	l.Sweep()

	assert.NotContains(t, l.visitors, "ip:a")
	assert.Contains(t, l.visitors, "ip:b")
}

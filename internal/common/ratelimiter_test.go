package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestrictionAnalyse(t *testing.T) {
	restriction := Restriction{Requests: 2, Duration: 10 * time.Second}

	assert.True(t, restriction.Analyse(nil, epoch).allowed)

	history := []time.Time{epoch.Add(-8 * time.Second), epoch.Add(-2 * time.Second)}
	analysis := restriction.Analyse(history, epoch)
	assert.False(t, analysis.allowed)
	assert.Equal(t, 2*time.Second, analysis.wait)

	// The first request falls out of the window
	analysis = restriction.Analyse(history, epoch.Add(2*time.Second))
	assert.True(t, analysis.allowed)
}

func TestRateLimiterRejectsNonVital(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, []Restriction{{Requests: 2, Duration: time.Minute}}, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Allowed(ctx, false))
	assert.True(t, rl.Allowed(ctx, false))
	assert.False(t, rl.Allowed(ctx, false))

	clock.Advance(time.Minute)
	assert.True(t, rl.Allowed(ctx, false))
}

func TestRateLimiterPenalty(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, []Restriction{{Requests: 100, Duration: time.Minute}}, 30*time.Second)
	ctx := context.Background()

	rl.ReceivedRateLimit()
	assert.False(t, rl.Allowed(ctx, false))

	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allowed(ctx, false))
}

func TestRateLimiterVitalWaits(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, []Restriction{{Requests: 1, Duration: time.Second}}, time.Second)
	ctx := context.Background()

	assert.True(t, rl.Allowed(ctx, true))

	result := make(chan bool)
	go func() { result <- rl.Allowed(ctx, true) }()

	// Wait for the vital request to arm its timer, then release it
	assert.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	clock.Advance(time.Second)

	select {
	case allowed := <-result:
		assert.True(t, allowed)
	case <-time.After(2 * time.Second):
		t.Fatal("vital request was never allowed")
	}
}

func TestRateLimiterVitalGivesUpOnContext(t *testing.T) {
	clock := NewManualClock(epoch)
	rl := NewRateLimiter(clock, []Restriction{{Requests: 1, Duration: time.Hour}}, time.Second)

	assert.True(t, rl.Allowed(context.Background(), true))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, rl.Allowed(ctx, true))
	assert.Empty(t, rl.pendingVitalRequests)
}

package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Analysis struct {
	allowed bool          // If the request is allowed
	wait    time.Duration // The minimal time to wait before the request is allowed
}

type RateLimiter struct {
	mu                   sync.Mutex
	clock                Clock
	restrictions         []Restriction          // Restrictions to consider
	history              []time.Time            // History of requests
	duration             time.Duration          // Min duration to wait for all restrictions to be lifted
	pendingVitalRequests map[uuid.UUID]struct{} // Set of pending vital requests
	stopwatch            Stopwatch              // Penalty after the server told us to slow down
}

func NewRateLimiter(clock Clock, restrictions []Restriction, penalty time.Duration) *RateLimiter {
	rl := &RateLimiter{clock: clock}
	rl.restrictions = append([]Restriction{}, restrictions...)
	for _, restriction := range restrictions {
		if restriction.Duration > rl.duration {
			rl.duration = restriction.Duration
		}
	}
	rl.pendingVitalRequests = map[uuid.UUID]struct{}{}
	rl.stopwatch = NewStopwatch(clock, penalty)
	return rl
}

// Decide if a request is allowed.
// Non vital requests are rejected if they would need to wait, or if vital
// requests are queued. Vital requests block here until they are allowed
// or the context is done
func (rl *RateLimiter) Allowed(ctx context.Context, vital bool) bool {

	// Give this request a unique identifier
	thisuuid := uuid.New()
	for {
		rl.mu.Lock()
		now := rl.clock.Now()
		rl.trim(now)
		analysis := rl.analyse(now)
		if analysis.allowed {
			if vital || len(rl.pendingVitalRequests) == 0 {
				delete(rl.pendingVitalRequests, thisuuid)
				rl.history = append(rl.history, now)
				rl.mu.Unlock()
				log.Debug().Msg("Allowing request")
				return true
			}
			rl.mu.Unlock()
			log.Warn().Msg("Rejecting non vital request because restrictions allow it but vital queue is not empty")
			return false
		}
		if !vital {
			rl.mu.Unlock()
			log.Warn().Msg("Rejecting a non vital request because restrictions do not allow it")
			return false
		}

		// Vital and not allowed: queue it and wait
		rl.pendingVitalRequests[thisuuid] = struct{}{}
		rl.mu.Unlock()
		log.Warn().Msg(fmt.Sprintf("Vital request %s delayed %.1f seconds", thisuuid, analysis.wait.Seconds()))

		woken := make(chan struct{})
		timer := rl.clock.AfterFunc(analysis.wait, func() { close(woken) })
		select {
		case <-woken:
		case <-ctx.Done():
			timer.Stop()
			rl.mu.Lock()
			delete(rl.pendingVitalRequests, thisuuid)
			rl.mu.Unlock()
			return false
		}
	}
}

// Called when the remote end answered with a rate limit.
// No request goes out until the penalty is over
func (rl *RateLimiter) ReceivedRateLimit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.stopwatch.Start()
}

// Trim the current history, leaving only the requests
// that are young enough to be affected by at least one restriction
func (rl *RateLimiter) trim(now time.Time) {
	// Times are stored in chronological order
	index := 0
	for i := len(rl.history) - 1; i >= 0; i-- {
		if now.Sub(rl.history[i]) > rl.duration {
			index = i + 1
			break
		}
	}
	rl.history = rl.history[index:]
}

func (rl *RateLimiter) analyse(now time.Time) Analysis {

	allowed := true
	var wait time.Duration = 0
	if stopped, left := rl.stopwatch.Stopped(); !stopped {
		allowed = false
		wait = left
	}
	for _, restriction := range rl.restrictions {
		analysis := restriction.Analyse(rl.history, now)
		allowed = allowed && analysis.allowed
		if analysis.wait > wait {
			wait = analysis.wait
		}
	}
	return Analysis{allowed, wait}
}

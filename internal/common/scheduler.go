package common

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type FollowupState int

const (
	FollowupPending  FollowupState = iota
	FollowupRunning  FollowupState = iota
	FollowupFired    FollowupState = iota
	FollowupCanceled FollowupState = iota
)

func (state FollowupState) String() string {
	switch state {
	case FollowupPending:
		return "pending"
	case FollowupRunning:
		return "running"
	case FollowupFired:
		return "fired"
	case FollowupCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", int(state))
	}
}

// A one shot action that runs at a given instant unless canceled before.
// It ends up either fired or canceled, never both
type Followup struct {
	Id   uuid.UUID
	Name string
	At   time.Time

	mu     sync.Mutex
	state  FollowupState
	timer  Timer
	action func() error
}

// Give the scheduler an instant and an action.
// If the instant is already in the past the action runs right away,
// otherwise a timer of the clock is armed for the remaining time
type Scheduler struct {
	clock Clock
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

func (s *Scheduler) Clock() Clock {
	return s.clock
}

func (s *Scheduler) Schedule(at time.Time, name string, action func() error) *Followup {

	followup := &Followup{Id: uuid.New(), Name: name, At: at, action: action}

	delay := at.Sub(s.clock.Now())
	if delay <= 0 {
		log.Info().Str("followup", name).Msg(fmt.Sprintf("Time already passed by %s, running now", -delay.Round(time.Second)))
		followup.run()
		return followup
	}

	log.Debug().Str("followup", name).Msg(fmt.Sprintf("Sleeping %s before running", delay.Round(time.Second)))
	followup.mu.Lock()
	followup.timer = s.clock.AfterFunc(delay, followup.run)
	followup.mu.Unlock()
	return followup
}

// Cancel the followup if it is still waiting.
// Returns false when the action is running or already finished,
// in which case nothing changes
func (f *Followup) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != FollowupPending {
		log.Debug().Str("followup", f.Name).Msg(fmt.Sprintf("Not canceling, followup is %s", f.state))
		return false
	}
	f.state = FollowupCanceled
	if f.timer != nil {
		f.timer.Stop()
	}
	log.Debug().Str("followup", f.Name).Msg("Followup canceled")
	return true
}

func (f *Followup) State() FollowupState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Followup) run() {

	f.mu.Lock()
	if f.state != FollowupPending {
		f.mu.Unlock()
		return
	}
	f.state = FollowupRunning
	f.mu.Unlock()

	// Whatever happens in the action, the followup counts as attempted
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("followup", f.Name).Msg(fmt.Sprintf("Followup panicked: %v", r))
		}
		f.mu.Lock()
		f.state = FollowupFired
		f.mu.Unlock()
	}()

	if err := f.action(); err != nil {
		log.Warn().Err(err).Str("followup", f.Name).Msg("Followup action failed")
		return
	}
	log.Debug().Str("followup", f.Name).Msg("Followup done")
}

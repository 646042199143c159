// Package shift keeps the staff shift clocks: at most one open shift per
// member, started only while the member is in game, ended by hand, by a
// supervisor, or automatically when the game reports the member left.
// It also tracks the scheduled shift announcements and their followups.
package shift

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"netbot/internal/common"
	"netbot/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const autoEndMessage = "⏰ Your staff clock has been automatically ended because you %s."

type Manager struct {
	mu        sync.Mutex
	shifts    map[common.UserId]*openShift
	presence  PresenceChecker
	scheduler *common.Scheduler
	notifier  Notifier
	store     Store
}

func NewManager(presence PresenceChecker, scheduler *common.Scheduler, notifier Notifier, store Store) *Manager {
	return &Manager{
		shifts:    map[common.UserId]*openShift{},
		presence:  presence,
		scheduler: scheduler,
		notifier:  notifier,
		store:     store,
	}
}

// Start a shift for the member.
// Manual starts require the member to be in game
func (m *Manager) Start(id common.UserId, options StartOptions) (Handle, error) {

	m.mu.Lock()
	if existing, ok := m.shifts[id]; ok {
		m.mu.Unlock()
		log.Debug().Str("user", string(id)).Msg(fmt.Sprintf("Shift already active since %s", existing.handle.StartedAt))
		return existing.handle, ErrAlreadyActive
	}
	if options.Origin == OriginManual && !m.presence.IsPresent(id) {
		m.mu.Unlock()
		log.Debug().Str("user", string(id)).Msg("Not starting shift, user is not in game")
		return Handle{}, ErrNotPresent
	}

	shift := &openShift{stopwatch: common.NewStopwatch(m.scheduler.Clock(), 0)}
	shift.handle = Handle{
		Id:        uuid.New(),
		UserId:    id,
		StartedAt: shift.stopwatch.Start(),
		Origin:    options.Origin,
		ChannelId: options.ChannelId,
	}
	m.shifts[id] = shift
	metrics.ShiftsStarted.WithLabelValues(options.Origin.String()).Inc()
	metrics.ActiveShifts.Set(float64(len(m.shifts)))
	m.mu.Unlock()

	log.Info().Str("user", string(id)).Str("origin", options.Origin.String()).Msg("Shift started")

	// Scheduled outside the lock, a followup in the past runs right away
	if !options.FollowupAt.IsZero() && options.Followup != nil {
		handle := shift.handle
		followup := m.scheduler.Schedule(options.FollowupAt, "shift-"+handle.Id.String(), func() error {
			if !m.isOpen(handle) {
				log.Debug().Str("user", string(handle.UserId)).Msg("Shift closed before its followup, skipping")
				return nil
			}
			return options.Followup(handle)
		})
		m.mu.Lock()
		ended := m.shifts[id] != shift
		shift.followup = followup
		m.mu.Unlock()
		// The shift may have been closed while the followup was being armed
		if ended {
			followup.Cancel()
		}
	}

	return shift.handle, nil
}

// End the member's shift and return how long it lasted
func (m *Manager) End(id common.UserId, reason string) (time.Duration, error) {
	record, err := m.close(id, reason, "manual")
	if err != nil {
		return 0, err
	}
	return record.Duration, nil
}

// Called when the game reports the member left or went inactive.
// Returns whether a shift was ended. It never fails: delivery
// problems are only logged
func (m *Manager) AutoEndOnPresenceLoss(id common.UserId, reason string) bool {

	record, err := m.close(id, fmt.Sprintf("Auto: %s", reason), "presence")
	if err != nil {
		log.Debug().Str("user", string(id)).Msg("[presence] auto-end: no active shift")
		return false
	}
	log.Info().Str("user", string(id)).Msg(fmt.Sprintf("[presence] auto-end: ended shift of %s because they %s", record.Duration.Round(time.Second), reason))

	if m.notifier != nil {
		if err := m.notifier.Direct(id, fmt.Sprintf(autoEndMessage, reason)); err != nil {
			metrics.NotificationFailures.WithLabelValues("direct").Inc()
			log.Info().Err(err).Str("user", string(id)).Msg("[presence] auto-end: unable to DM user")
		}
	}
	return true
}

// End someone else's shift. The actor is assumed to be allowed to
func (m *Manager) ForceEnd(actor common.UserId, target common.UserId) (time.Duration, error) {
	record, err := m.close(target, fmt.Sprintf("Force-ended by %s", actor.Mention()), "forced")
	if err != nil {
		return 0, err
	}
	log.Info().Str("actor", string(actor)).Str("user", string(target)).Msg("Shift force-ended")
	return record.Duration, nil
}

func (m *Manager) Active(id common.UserId) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	if !ok {
		return Handle{}, false
	}
	return shift.handle, true
}

// Open shifts, oldest first
func (m *Manager) ActiveShifts() []Handle {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.shifts))
	for _, shift := range m.shifts {
		handles = append(handles, shift.handle)
	}
	m.mu.Unlock()
	sort.Slice(handles, func(i, j int) bool { return handles[i].StartedAt.Before(handles[j].StartedAt) })
	return handles
}

func (m *Manager) isOpen(handle Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[handle.UserId]
	return ok && shift.handle.Id == handle.Id
}

// Remove the open shift, then record and announce it.
// The state change happens first and never depends on the collaborators
func (m *Manager) close(id common.UserId, reason string, how string) (Record, error) {

	m.mu.Lock()
	shift, ok := m.shifts[id]
	if !ok {
		m.mu.Unlock()
		return Record{}, ErrNoActiveShift
	}
	delete(m.shifts, id)
	duration := shift.stopwatch.Stop()
	record := Record{
		Handle:   shift.handle,
		EndedAt:  shift.stopwatch.StartTime().Add(duration),
		Duration: duration,
		Reason:   reason,
	}
	followup := shift.followup
	metrics.ActiveShifts.Set(float64(len(m.shifts)))
	m.mu.Unlock()

	metrics.ShiftsEnded.WithLabelValues(how).Inc()
	metrics.ShiftDuration.Observe(duration.Seconds())
	log.Info().Str("user", string(id)).Dur("duration", duration).Str("reason", reason).Msg("Shift ended")

	if followup != nil {
		followup.Cancel()
	}

	if m.store != nil {
		if err := m.store.SaveShift(context.Background(), record); err != nil {
			log.Error().Err(err).Str("user", string(id)).Msg("Could not save shift")
		}
	}
	if m.notifier != nil {
		if err := m.notifier.ShiftEnded(record); err != nil {
			metrics.NotificationFailures.WithLabelValues("shift_ended").Inc()
			log.Warn().Err(err).Str("user", string(id)).Msg("Could not announce the end of the shift")
		}
	}

	return record, nil
}

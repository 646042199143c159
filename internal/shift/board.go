package shift

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"netbot/internal/common"
	"netbot/internal/metrics"

	"github.com/rs/zerolog/log"
)

// A scheduled shift posted in the shifts channel. Members react to it
// to be pinged when the shift starts
type Announcement struct {
	MessageId string
	ChannelId string
	HostId    common.UserId
	Game      string
	When      time.Time
	Attendees []common.UserId
	Canceled  bool
	Concluded bool
}

type announcement struct {
	Announcement
	attendees map[common.UserId]struct{}
	followup  *common.Followup
}

// Keeps the posted announcements, keyed by the id of the posted message
type Board struct {
	mu            sync.Mutex
	announcements map[string]*announcement
	scheduler     *common.Scheduler
}

func NewBoard(scheduler *common.Scheduler) *Board {
	return &Board{announcements: map[string]*announcement{}, scheduler: scheduler}
}

// Track a posted announcement and schedule its followup at the shift time.
// The followup gets the announcement as it is when it fires
func (b *Board) Post(posted Announcement, followup func(Announcement) error) {

	entry := &announcement{Announcement: posted, attendees: map[common.UserId]struct{}{}}
	for _, id := range posted.Attendees {
		entry.attendees[id] = struct{}{}
	}
	b.mu.Lock()
	b.announcements[posted.MessageId] = entry
	b.mu.Unlock()

	log.Info().Str("message", posted.MessageId).Msg(fmt.Sprintf("[shift] scheduled followup at %s", posted.When.Format(time.RFC3339)))
	handle := b.scheduler.Schedule(posted.When, "announcement-"+posted.MessageId, func() error {
		current, err := b.Get(posted.MessageId)
		if err != nil {
			return err
		}
		if current.Canceled {
			log.Info().Str("message", posted.MessageId).Msg("[shift] followup: announcement was canceled, skipping")
			metrics.Followups.WithLabelValues("skipped").Inc()
			return nil
		}
		if err := followup(current); err != nil {
			metrics.Followups.WithLabelValues("failed").Inc()
			return err
		}
		metrics.Followups.WithLabelValues("posted").Inc()
		return nil
	})

	b.mu.Lock()
	entry.followup = handle
	b.mu.Unlock()
}

func (b *Board) Attend(messageId string, id common.UserId) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.announcements[messageId]
	if !ok {
		return ErrUnknownAnnouncement
	}
	entry.attendees[id] = struct{}{}
	return nil
}

// Stop the followup of the announcement and mark it canceled
func (b *Board) Cancel(messageId string) (Announcement, error) {

	b.mu.Lock()
	entry, ok := b.announcements[messageId]
	if !ok {
		b.mu.Unlock()
		return Announcement{}, ErrUnknownAnnouncement
	}
	if entry.Canceled {
		b.mu.Unlock()
		return entry.snapshot(), ErrAnnouncementCanceled
	}
	entry.Canceled = true
	followup := entry.followup
	snapshot := entry.snapshot()
	b.mu.Unlock()

	if followup != nil && followup.Cancel() {
		metrics.Followups.WithLabelValues("canceled").Inc()
	}
	log.Info().Str("message", messageId).Msg("[shift] announcement canceled")
	return snapshot, nil
}

// Forget the announcement once its shift is over. A followup still
// waiting is dropped with it
func (b *Board) Conclude(messageId string) (Announcement, error) {

	b.mu.Lock()
	entry, ok := b.announcements[messageId]
	if !ok {
		b.mu.Unlock()
		return Announcement{}, ErrUnknownAnnouncement
	}
	delete(b.announcements, messageId)
	entry.Concluded = true
	followup := entry.followup
	snapshot := entry.snapshot()
	b.mu.Unlock()

	if followup != nil && followup.Cancel() {
		metrics.Followups.WithLabelValues("canceled").Inc()
	}
	log.Info().Str("message", messageId).Msg("[shift] announcement concluded")
	return snapshot, nil
}

func (b *Board) Get(messageId string) (Announcement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.announcements[messageId]
	if !ok {
		return Announcement{}, ErrUnknownAnnouncement
	}
	return entry.snapshot(), nil
}

func (a *announcement) snapshot() Announcement {
	snapshot := a.Announcement
	snapshot.Attendees = make([]common.UserId, 0, len(a.attendees))
	for id := range a.attendees {
		snapshot.Attendees = append(snapshot.Attendees, id)
	}
	sort.Slice(snapshot.Attendees, func(i, j int) bool { return snapshot.Attendees[i] < snapshot.Attendees[j] })
	return snapshot
}

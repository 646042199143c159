package shift

import (
	"context"
	"errors"
	"time"

	"netbot/internal/common"

	"github.com/google/uuid"
)

var (
	ErrAlreadyActive = errors.New("shift already active")
	ErrNotPresent    = errors.New("user is not in the game")
	ErrNoActiveShift = errors.New("no active shift")

	ErrUnknownAnnouncement  = errors.New("announcement not tracked")
	ErrAnnouncementCanceled = errors.New("announcement already canceled")
)

type Origin int

const (
	OriginManual Origin = iota
	OriginAuto   Origin = iota
)

func (origin Origin) String() string {
	if origin == OriginManual {
		return "manual"
	}
	return "auto"
}

// Presence as seen by the manager
type PresenceChecker interface {
	IsPresent(id common.UserId) bool
}

// Delivery of shift messages. Both calls are best effort: an error is
// logged by the manager and never changes the outcome of an operation
type Notifier interface {
	ShiftEnded(record Record) error
	Direct(id common.UserId, content string) error
}

// Durable history of closed shifts
type Store interface {
	SaveShift(ctx context.Context, record Record) error
}

type StartOptions struct {
	Origin    Origin
	ChannelId string
	// Optional followup for this shift, fired at FollowupAt
	FollowupAt time.Time
	Followup   func(handle Handle) error
}

// What callers get to see about an open shift
type Handle struct {
	Id        uuid.UUID
	UserId    common.UserId
	StartedAt time.Time
	Origin    Origin
	ChannelId string
}

// A closed shift
type Record struct {
	Handle
	EndedAt  time.Time
	Duration time.Duration
	Reason   string
}

type openShift struct {
	handle    Handle
	stopwatch common.Stopwatch
	followup  *common.Followup
}

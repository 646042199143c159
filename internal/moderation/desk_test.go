package moderation

import (
	"testing"
	"time"

	"netbot/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func newDesk() (*common.ManualClock, *Desk) {
	clock := common.NewManualClock(epoch)
	return clock, NewDesk(common.NewScheduler(clock))
}

func TestPunishment(t *testing.T) {
	punishment, ok := Punishment(" server ban ")
	assert.True(t, ok)
	assert.Equal(t, "Server Ban", punishment)

	_, ok = Punishment("exile")
	assert.False(t, ok)

	assert.True(t, Severe("Global Ban"))
	assert.True(t, Severe("Kick"))
	assert.False(t, Severe("Time Ban"))
	assert.False(t, Severe("Warning"))
}

func TestHoldThenTake(t *testing.T) {
	clock, desk := newDesk()

	draft := desk.Hold(Draft{Kind: KindNew, ModeratorId: "10", RobloxId: 7, Punishment: "Kick", Reason: "spam"})
	assert.NotEqual(t, uuid.Nil, draft.Id)
	assert.Equal(t, epoch, draft.HeldAt)
	assert.Equal(t, 1, desk.Pending())
	assert.Equal(t, 1, clock.Pending())

	found, err := desk.Get(draft.Id)
	require.NoError(t, err)
	assert.Equal(t, draft, found)

	taken, err := desk.Take(draft.Id, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "spam", taken.Reason)
	assert.Equal(t, 0, desk.Pending())
	assert.Equal(t, 0, clock.Pending())

	_, err = desk.Take(draft.Id, "confirmed")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftExpires(t *testing.T) {
	clock, desk := newDesk()
	draft := desk.Hold(Draft{Kind: KindEdit, CaseId: 3})
	other := desk.Hold(Draft{Kind: KindNew})

	clock.Advance(DRAFT_TIMEOUT - time.Second)
	_, err := desk.Get(draft.Id)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = desk.Get(draft.Id)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = desk.Take(other.Id, "canceled")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 0, desk.Pending())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "new", KindNew.String())
	assert.Equal(t, "edit", KindEdit.String())
}

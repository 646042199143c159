// Package moderation keeps the moderation cards waiting for a confirm or
// cancel click. A card left alone expires and can not be confirmed anymore
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"netbot/internal/common"
	"netbot/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// How long a card accepts clicks
const DRAFT_TIMEOUT = 3 * time.Minute

var ErrDraftNotFound = errors.New("moderation draft expired or unknown")

var PUNISHMENTS = []string{
	"Warning",
	"Mute",
	"Kick",
	"Server Ban",
	"Time Ban",
	"Global Ban",
}

// Canonical name of a punishment, matched without case
func Punishment(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, punishment := range PUNISHMENTS {
		if strings.EqualFold(punishment, value) {
			return punishment, true
		}
	}
	return "", false
}

// Punishments that remove the player from the game
func Severe(punishment string) bool {
	switch strings.ToLower(punishment) {
	case "kick", "server ban", "global ban":
		return true
	}
	return false
}

type Kind int

const (
	KindNew  Kind = iota
	KindEdit Kind = iota
)

func (kind Kind) String() string {
	if kind == KindEdit {
		return "edit"
	}
	return "new"
}

// What a confirm click will write. New cases carry the target, edits
// carry the case id
type Draft struct {
	Id          uuid.UUID
	Kind        Kind
	GuildId     string
	ModeratorId common.UserId
	RobloxId    common.RobloxId
	Username    string
	CaseId      int64
	Punishment  string
	Reason      string
	HeldAt      time.Time
}

type held struct {
	draft  Draft
	expiry *common.Followup
}

type Desk struct {
	mu        sync.Mutex
	drafts    map[uuid.UUID]*held
	scheduler *common.Scheduler
}

func NewDesk(scheduler *common.Scheduler) *Desk {
	return &Desk{drafts: map[uuid.UUID]*held{}, scheduler: scheduler}
}

// Keep the draft until it is taken or DRAFT_TIMEOUT passes
func (d *Desk) Hold(draft Draft) Draft {

	draft.Id = uuid.New()
	draft.HeldAt = d.scheduler.Clock().Now()
	entry := &held{draft: draft}
	d.mu.Lock()
	d.drafts[draft.Id] = entry
	d.mu.Unlock()

	expiry := d.scheduler.Schedule(draft.HeldAt.Add(DRAFT_TIMEOUT), "draft-"+draft.Id.String(), func() error {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.drafts[draft.Id] != entry {
			return nil
		}
		delete(d.drafts, draft.Id)
		metrics.ModerationDrafts.WithLabelValues("expired").Inc()
		log.Info().Str("draft", draft.Id.String()).Msg(fmt.Sprintf("Moderation %s draft by %s expired", draft.Kind, draft.ModeratorId))
		return nil
	})

	d.mu.Lock()
	entry.expiry = expiry
	d.mu.Unlock()
	return draft
}

func (d *Desk) Get(id uuid.UUID) (Draft, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return entry.draft, nil
}

// Remove the draft so no other click can use it.
// The outcome only labels the metric
func (d *Desk) Take(id uuid.UUID, outcome string) (Draft, error) {

	d.mu.Lock()
	entry, ok := d.drafts[id]
	if !ok {
		d.mu.Unlock()
		return Draft{}, ErrDraftNotFound
	}
	delete(d.drafts, id)
	expiry := entry.expiry
	d.mu.Unlock()

	if expiry != nil {
		expiry.Cancel()
	}
	metrics.ModerationDrafts.WithLabelValues(outcome).Inc()
	return entry.draft, nil
}

func (d *Desk) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}

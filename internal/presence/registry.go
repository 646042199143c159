// Package presence records which members are currently inside the Roblox
// game, as reported by the game server webhook.
//
// Updates are last write wins. There is no sequencing, so a leave that
// arrives after a later join (network reordering) leaves the member absent.
package presence

import (
	"sort"
	"sync"

	"netbot/internal/common"
	"netbot/internal/metrics"

	"github.com/rs/zerolog/log"
)

type Registry struct {
	mu      sync.RWMutex
	present map[common.UserId]bool
}

func NewRegistry() *Registry {
	return &Registry{present: map[common.UserId]bool{}}
}

func (r *Registry) MarkPresent(id common.UserId) {
	r.set(id, true)
	log.Info().Str("user", string(id)).Msg("[presence] mark join")
}

func (r *Registry) MarkAbsent(id common.UserId) {
	r.set(id, false)
	log.Info().Str("user", string(id)).Msg("[presence] mark leave")
}

// Unknown ids are never present
func (r *Registry) IsPresent(id common.UserId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.present[id]
}

// Sorted list of the members currently in game
func (r *Registry) Present() []common.UserId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := []common.UserId{}
	for id, present := range r.present {
		if present {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) set(id common.UserId, present bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.present[id] = present

	count := 0
	for _, p := range r.present {
		if p {
			count++
		}
	}
	metrics.PlayersInGame.Set(float64(count))
}

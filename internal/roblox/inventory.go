// Package roblox talks to the public Roblox inventory API
package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"netbot/internal/common"

	"github.com/rs/zerolog/log"
)

// Data is non empty if the user owns the gamepass
const ROUTE_GAMEPASS = "/users/%d/items/GamePass/%d"

type Ownership struct {
	Gamepass common.Gamepass
	Owned    bool
	Err      error
}

type Inventory struct {
	baseUrl string
	proxy   *common.Proxy
}

func NewInventory(baseUrl string, rateLimiter *common.RateLimiter) *Inventory {
	return &Inventory{baseUrl: baseUrl, proxy: common.NewProxy(map[string]string{}, rateLimiter, 10*time.Second)}
}

func (inventory *Inventory) OwnsGamepass(ctx context.Context, user common.RobloxId, gamepassId int64) (bool, error) {

	url := inventory.baseUrl + fmt.Sprintf(ROUTE_GAMEPASS, user, gamepassId)
	log.Debug().Msg(fmt.Sprintf("Requesting to url %s", url))
	data, err := inventory.proxy.Request(ctx, url, true)
	if err != nil {
		return false, err
	}

	var raw struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("could not decode inventory response: %w", err)
	}
	return len(raw.Data) > 0, nil
}

// Check every gamepass, one failure does not stop the others
func (inventory *Inventory) CheckGamepasses(ctx context.Context, user common.RobloxId, gamepasses []common.Gamepass) []Ownership {

	result := make([]Ownership, 0, len(gamepasses))
	for _, gamepass := range gamepasses {
		owned, err := inventory.OwnsGamepass(ctx, user, gamepass.Id)
		if err != nil {
			log.Warn().Err(err).Msg(fmt.Sprintf("Could not check gamepass %d for roblox id %d", gamepass.Id, user))
		}
		result = append(result, Ownership{Gamepass: gamepass, Owned: owned, Err: err})
	}
	return result
}

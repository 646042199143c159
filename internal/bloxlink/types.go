package bloxlink

import (
	"errors"
	"time"

	"netbot/internal/common"
)

var ErrNotLinked = errors.New("account is not linked with bloxlink")

// A verified link between a discord member and a roblox account
type Link struct {
	DiscordId common.UserId
	RobloxId  common.RobloxId
	FetchedAt time.Time
}

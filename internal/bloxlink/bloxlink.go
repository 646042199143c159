// Package bloxlink resolves discord members to roblox accounts and back
// through the Bloxlink server API, caching what it learns in memory and
// in the database.
package bloxlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"netbot/internal/common"

	"github.com/rs/zerolog/log"
)

// Routes inside the Bloxlink server API
const ROUTE_DISCORD_TO_ROBLOX = "/guilds/%s/discord-to-roblox/%s"
const ROUTE_ROBLOX_TO_DISCORD = "/guilds/%s/roblox-to-discord/%d"

// Members can relink, so cached links are refreshed after a while
const LINK_TTL = 24 * time.Hour

type Client struct {
	mu         sync.Mutex
	database   *DatabaseBloxlink
	baseUrl    string
	guildId    string
	clock      common.Clock
	proxy      *common.Proxy
	robloxIds  map[common.UserId]Link
	discordIds map[common.RobloxId]Link
}

func NewClient(ctx context.Context, database *DatabaseBloxlink, baseUrl string, apiKey string, guildId string, clock common.Clock, rateLimiter *common.RateLimiter) (*Client, error) {

	client := &Client{
		database:   database,
		baseUrl:    baseUrl,
		guildId:    guildId,
		clock:      clock,
		proxy:      common.NewProxy(map[string]string{"Authorization": apiKey}, rateLimiter, 10*time.Second),
		robloxIds:  map[common.UserId]Link{},
		discordIds: map[common.RobloxId]Link{},
	}

	// Initialise the cache from the database if present
	if database != nil {
		links, err := database.GetLinks(ctx)
		if err != nil {
			return nil, err
		}
		for _, link := range links {
			client.remember(link)
		}
		log.Info().Msg(fmt.Sprintf("Loaded %d bloxlink links from the database", len(links)))
	}
	return client, nil
}

func (client *Client) DiscordToRoblox(ctx context.Context, discordId common.UserId) (common.RobloxId, error) {

	// Check cache
	client.mu.Lock()
	link, ok := client.robloxIds[discordId]
	client.mu.Unlock()
	if ok && client.fresh(link) {
		return link.RobloxId, nil
	}
	log.Debug().Msg(fmt.Sprintf("Roblox id for discord id %s is not in the cache", discordId))

	// Request
	data, err := client.request(ctx, fmt.Sprintf(ROUTE_DISCORD_TO_ROBLOX, url.PathEscape(client.guildId), url.PathEscape(string(discordId))))
	if err != nil {
		return 0, err
	}

	// Decode
	robloxId, err := UnmarshalRobloxId(data)
	if err != nil {
		return 0, err
	}
	log.Debug().Msg(fmt.Sprintf("Found roblox id %d for discord id %s", robloxId, discordId))

	client.store(ctx, Link{DiscordId: discordId, RobloxId: robloxId, FetchedAt: client.clock.Now()})
	return robloxId, nil
}

func (client *Client) RobloxToDiscord(ctx context.Context, robloxId common.RobloxId) (common.UserId, error) {

	// Check cache
	client.mu.Lock()
	link, ok := client.discordIds[robloxId]
	client.mu.Unlock()
	if ok && client.fresh(link) {
		return link.DiscordId, nil
	}
	log.Debug().Msg(fmt.Sprintf("Discord id for roblox id %d is not in the cache", robloxId))

	// Request
	data, err := client.request(ctx, fmt.Sprintf(ROUTE_ROBLOX_TO_DISCORD, url.PathEscape(client.guildId), robloxId))
	if err != nil {
		return "", err
	}

	// Decode
	discordId, err := UnmarshalDiscordId(data)
	if err != nil {
		return "", err
	}
	log.Debug().Msg(fmt.Sprintf("Found discord id %s for roblox id %d", discordId, robloxId))

	client.store(ctx, Link{DiscordId: discordId, RobloxId: robloxId, FetchedAt: client.clock.Now()})
	return discordId, nil
}

// Drop the links that are too old, both in memory and in the database
func (client *Client) Housekeeping(ctx context.Context) {

	cutoff := client.clock.Now().Add(-LINK_TTL)
	client.mu.Lock()
	for id, link := range client.robloxIds {
		if link.FetchedAt.Before(cutoff) {
			delete(client.robloxIds, id)
		}
	}
	for id, link := range client.discordIds {
		if link.FetchedAt.Before(cutoff) {
			delete(client.discordIds, id)
		}
	}
	log.Info().Msg(fmt.Sprintf("Current number of cached links: %d", len(client.robloxIds)))
	client.mu.Unlock()

	if client.database != nil {
		purged, err := client.database.DeleteLinksBefore(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("Could not purge old links")
			return
		}
		log.Info().Msg(fmt.Sprintf("Purged %d old links from the database", purged))
	}
}

func (client *Client) fresh(link Link) bool {
	return client.clock.Now().Sub(link.FetchedAt) < LINK_TTL
}

func (client *Client) remember(link Link) {
	// A roblox account moved to another member invalidates the old pair
	if old, ok := client.discordIds[link.RobloxId]; ok && old.DiscordId != link.DiscordId {
		delete(client.robloxIds, old.DiscordId)
	}
	// So does a member who relinked to another roblox account
	if old, ok := client.robloxIds[link.DiscordId]; ok && old.RobloxId != link.RobloxId {
		delete(client.discordIds, old.RobloxId)
	}
	client.robloxIds[link.DiscordId] = link
	client.discordIds[link.RobloxId] = link
}

func (client *Client) store(ctx context.Context, link Link) {
	client.mu.Lock()
	client.remember(link)
	client.mu.Unlock()

	if client.database != nil {
		if err := client.database.SetLink(ctx, link); err != nil {
			log.Error().Err(err).Msg("Could not store link in the database")
		}
	}
}

func (client *Client) request(ctx context.Context, route string) ([]byte, error) {

	if client.guildId == "" {
		return nil, fmt.Errorf("no guild configured for bloxlink lookups")
	}
	url := client.baseUrl + route
	log.Debug().Msg(fmt.Sprintf("Requesting to url %s", url))
	data, err := client.proxy.Request(ctx, url, true)
	if errors.Is(err, common.ErrNotFound) {
		return nil, ErrNotLinked
	}
	return data, err
}

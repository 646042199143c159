package bloxlink

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"netbot/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeBloxlink struct {
	server *httptest.Server
	hits   atomic.Int32
}

func newFakeBloxlink(t *testing.T) *fakeBloxlink {
	fake := &fakeBloxlink{}
	mux := http.NewServeMux()
	mux.HandleFunc("/guilds/42/discord-to-roblox/", func(w http.ResponseWriter, r *http.Request) {
		fake.hits.Add(1)
		if r.Header.Get("Authorization") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch filepath.Base(r.URL.Path) {
		case "111":
			w.Write([]byte(`{"robloxID": "146941966", "resolved": {}}`))
		case "333":
			w.Write([]byte(`{"error": "rate limited"}`))
			return
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "User not found"}`))
		}
	})
	mux.HandleFunc("/guilds/42/roblox-to-discord/", func(w http.ResponseWriter, r *http.Request) {
		fake.hits.Add(1)
		switch filepath.Base(r.URL.Path) {
		case "146941966":
			w.Write([]byte(`{"discordIDs": ["111"], "resolved": {}}`))
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"discordIDs": []}`))
		}
	})
	fake.server = httptest.NewServer(mux)
	t.Cleanup(fake.server.Close)
	return fake
}

func newTestClient(t *testing.T, fake *fakeBloxlink, clock common.Clock, database *DatabaseBloxlink) *Client {
	rateLimiter := common.NewRateLimiter(clock, []common.Restriction{{Requests: 100, Duration: time.Minute}}, time.Minute)
	client, err := NewClient(context.Background(), database, fake.server.URL, "key", "42", clock, rateLimiter)
	require.NoError(t, err)
	return client
}

func openTestDatabase(t *testing.T) *DatabaseBloxlink {
	database, err := common.OpenDatabase(filepath.Join(t.TempDir(), "bloxlink.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	db, err := NewDatabaseBloxlink(context.Background(), database)
	require.NoError(t, err)
	return db
}

func TestDiscordToRoblox(t *testing.T) {
	fake := newFakeBloxlink(t)
	client := newTestClient(t, fake, common.NewManualClock(epoch), nil)

	id, err := client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, common.RobloxId(146941966), id)

	// Second lookup comes from the cache, in both directions
	_, err = client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)
	discordId, err := client.RobloxToDiscord(context.Background(), 146941966)
	require.NoError(t, err)
	assert.Equal(t, common.UserId("111"), discordId)
	assert.Equal(t, int32(1), fake.hits.Load())
}

func TestNotLinked(t *testing.T) {
	fake := newFakeBloxlink(t)
	client := newTestClient(t, fake, common.NewManualClock(epoch), nil)

	_, err := client.DiscordToRoblox(context.Background(), "222")
	assert.ErrorIs(t, err, ErrNotLinked)

	_, err = client.DiscordToRoblox(context.Background(), "333")
	assert.ErrorIs(t, err, ErrNotLinked)

	_, err = client.RobloxToDiscord(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestServerErrorIsNotNotLinked(t *testing.T) {
	fake := newFakeBloxlink(t)
	client := newTestClient(t, fake, common.NewManualClock(epoch), nil)

	_, err := client.RobloxToDiscord(context.Background(), 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotLinked)
}

func TestCacheExpires(t *testing.T) {
	fake := newFakeBloxlink(t)
	clock := common.NewManualClock(epoch)
	client := newTestClient(t, fake, clock, nil)

	_, err := client.RobloxToDiscord(context.Background(), 146941966)
	require.NoError(t, err)
	clock.Advance(LINK_TTL)
	_, err = client.RobloxToDiscord(context.Background(), 146941966)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.hits.Load())
}

func TestLinksSurviveRestart(t *testing.T) {
	fake := newFakeBloxlink(t)
	clock := common.NewManualClock(epoch)
	database := openTestDatabase(t)

	client := newTestClient(t, fake, clock, database)
	_, err := client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)

	restarted := newTestClient(t, fake, clock, database)
	id, err := restarted.RobloxToDiscord(context.Background(), 146941966)
	require.NoError(t, err)
	assert.Equal(t, common.UserId("111"), id)
	assert.Equal(t, int32(1), fake.hits.Load())
}

func TestHousekeepingPurgesOldLinks(t *testing.T) {
	fake := newFakeBloxlink(t)
	clock := common.NewManualClock(epoch)
	database := openTestDatabase(t)

	client := newTestClient(t, fake, clock, database)
	_, err := client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)

	clock.Advance(LINK_TTL + time.Minute)
	client.Housekeeping(context.Background())

	links, err := database.GetLinks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestSetLinkMovesRobloxAccount(t *testing.T) {
	database := openTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.SetLink(ctx, Link{DiscordId: "1", RobloxId: 5, FetchedAt: epoch}))
	require.NoError(t, database.SetLink(ctx, Link{DiscordId: "2", RobloxId: 5, FetchedAt: epoch}))

	links, err := database.GetLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, common.UserId("2"), links[0].DiscordId)
	assert.True(t, links[0].FetchedAt.Equal(epoch))
}

func TestRelinkDropsPreviousRobloxAccount(t *testing.T) {
	var linked atomic.Int64
	linked.Store(1)
	mux := http.NewServeMux()
	mux.HandleFunc("/guilds/42/discord-to-roblox/111", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fmt.Sprintf(`{"robloxID": "%d"}`, linked.Load())))
	})
	mux.HandleFunc("/guilds/42/roblox-to-discord/", func(w http.ResponseWriter, r *http.Request) {
		if filepath.Base(r.URL.Path) == fmt.Sprint(linked.Load()) {
			w.Write([]byte(`{"discordIDs": ["111"]}`))
			return
		}
		w.Write([]byte(`{"discordIDs": []}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	clock := common.NewManualClock(epoch)
	client, err := NewClient(context.Background(), nil, server.URL, "key", "42", clock,
		common.NewRateLimiter(clock, []common.Restriction{{Requests: 100, Duration: time.Minute}}, time.Minute))
	require.NoError(t, err)

	id, err := client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, common.RobloxId(1), id)

	// Member 111 moves to roblox account 2
	linked.Store(2)
	clock.Advance(time.Hour)
	discordId, err := client.RobloxToDiscord(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, common.UserId("111"), discordId)

	_, err = client.RobloxToDiscord(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotLinked)
	id, err = client.DiscordToRoblox(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, common.RobloxId(2), id)
}

package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"netbot/internal/bloxlink"
	"netbot/internal/common"
	"netbot/internal/presence"
	"netbot/internal/shift"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBloxlink map[common.RobloxId]common.UserId

func (links fakeBloxlink) RobloxToDiscord(ctx context.Context, robloxId common.RobloxId) (common.UserId, error) {
	if robloxId == 500 {
		return "", errors.New("bloxlink is down")
	}
	id, ok := links[robloxId]
	if !ok {
		return "", bloxlink.ErrNotLinked
	}
	return id, nil
}

type fixture struct {
	registry *presence.Registry
	shifts   *shift.Manager
	router   http.Handler
}

func newFixture(secret string) fixture {
	clock := common.NewManualClock(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC))
	registry := presence.NewRegistry()
	shifts := shift.NewManager(registry, common.NewScheduler(clock), nil, nil)
	resolver := LinkResolver{Bloxlink: fakeBloxlink{146941966: "882441222487162912"}}
	server := NewServer(0, secret, resolver, registry, shifts)
	return fixture{registry, shifts, server.Router()}
}

func (f fixture) post(body string, secret string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, "/roblox/presence", strings.NewReader(body))
	if secret != "" {
		request.Header.Set("X-Game-Secret", secret)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func TestJoinMarksPresent(t *testing.T) {
	f := newFixture("s3cret")

	response := f.post(`{"discord_id": "123456789012345678", "event": "JOIN"}`, "s3cret")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "ok", response.Body.String())
	assert.True(t, f.registry.IsPresent("123456789012345678"))
}

func TestNumericDiscordIdKeepsPrecision(t *testing.T) {
	f := newFixture("")

	response := f.post(`{"discord_id": 123456789012345678, "event": "join"}`, "")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.True(t, f.registry.IsPresent("123456789012345678"))
}

func TestBadSecretIsRejected(t *testing.T) {
	f := newFixture("s3cret")

	response := f.post(`{"discord_id": "1", "event": "join"}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	response = f.post(`{"discord_id": "1", "event": "join"}`, "")
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.False(t, f.registry.IsPresent("1"))
}

func TestInvalidBodies(t *testing.T) {
	f := newFixture("")

	assert.Equal(t, http.StatusBadRequest, f.post(`{not json`, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.post(`{"discord_id": "1", "event": "dance"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.post(`{"event": "join"}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, f.post(`{"discord_id": "abc", "event": "join"}`, "").Code)
	assert.Empty(t, f.registry.Present())
}

func TestLeaveEndsShift(t *testing.T) {
	f := newFixture("")

	require.Equal(t, http.StatusOK, f.post(`{"discord_id": "1", "event": "join"}`, "").Code)
	_, err := f.shifts.Start("1", shift.StartOptions{Origin: shift.OriginManual})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, f.post(`{"discord_id": "1", "event": "leave"}`, "").Code)
	assert.False(t, f.registry.IsPresent("1"))
	_, open := f.shifts.Active("1")
	assert.False(t, open)

	// A second leave is harmless
	assert.Equal(t, http.StatusOK, f.post(`{"discord_id": "1", "event": "leave"}`, "").Code)
}

func TestInactiveEndsShiftButKeepsPresence(t *testing.T) {
	f := newFixture("")

	require.Equal(t, http.StatusOK, f.post(`{"discord_id": "1", "event": "join"}`, "").Code)
	_, err := f.shifts.Start("1", shift.StartOptions{Origin: shift.OriginManual})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, f.post(`{"discord_id": "1", "event": "inactive"}`, "").Code)
	assert.True(t, f.registry.IsPresent("1"))
	_, open := f.shifts.Active("1")
	assert.False(t, open)
}

func TestRobloxIdIsResolved(t *testing.T) {
	f := newFixture("")

	assert.Equal(t, http.StatusOK, f.post(`{"roblox_id": 146941966, "event": "join"}`, "").Code)
	assert.True(t, f.registry.IsPresent("882441222487162912"))

	assert.Equal(t, http.StatusNotFound, f.post(`{"roblox_id": "7", "event": "join"}`, "").Code)
	assert.Equal(t, http.StatusBadGateway, f.post(`{"roblox_id": 500, "event": "join"}`, "").Code)
	assert.Equal(t, []common.UserId{"882441222487162912"}, f.registry.Present())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture("")

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	f.post(`{"discord_id": "1", "event": "join"}`, "")
	recorder = httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "netbot_presence_events_total")
}

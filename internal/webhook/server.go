// Package webhook receives presence events from the Roblox game server
// and feeds them into the presence registry and the shift manager
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"netbot/internal/bloxlink"
	"netbot/internal/common"
	"netbot/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	EVENT_JOIN     = "join"
	EVENT_LEAVE    = "leave"
	EVENT_INACTIVE = "inactive"
)

const (
	REASON_LEAVE    = "left the Roblox game"
	REASON_INACTIVE = "were inactive in Roblox for 10 minutes"
)

// What the game server posts. Either id identifies the member
type Event struct {
	DiscordId json.RawMessage `json:"discord_id"`
	RobloxId  json.RawMessage `json:"roblox_id"`
	Event     string          `json:"event"`
}

// Maps an event to the discord member it is about
type Resolver interface {
	Resolve(ctx context.Context, event Event) (common.UserId, error)
}

type Presence interface {
	MarkPresent(id common.UserId)
	MarkAbsent(id common.UserId)
}

type Shifts interface {
	AutoEndOnPresenceLoss(id common.UserId, reason string) bool
}

type Server struct {
	secret   string
	resolver Resolver
	presence Presence
	shifts   Shifts
	http     *http.Server
}

func NewServer(port int, secret string, resolver Resolver, presence Presence, shifts Shifts) *Server {
	server := &Server{secret: secret, resolver: resolver, presence: presence, shifts: shifts}
	server.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Post("/roblox/presence", s.handlePresence)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// Serve until the context is done
func (s *Server) Run(ctx context.Context) error {

	errs := make(chan error, 1)
	go func() {
		log.Info().Msg(fmt.Sprintf("[web] Roblox presence webhook listening on %s", s.http.Addr))
		errs <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("webhook server stopped: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdown)
	}
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {

	// Simple shared secret auth
	if s.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Game-Secret")), []byte(s.secret)) != 1 {
		metrics.PresenceEvents.WithLabelValues("unknown", "unauthorized").Inc()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var event Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&event); err != nil {
		metrics.PresenceEvents.WithLabelValues("unknown", "invalid").Inc()
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	event.Event = strings.ToLower(strings.TrimSpace(event.Event))
	if event.Event != EVENT_JOIN && event.Event != EVENT_LEAVE && event.Event != EVENT_INACTIVE {
		metrics.PresenceEvents.WithLabelValues("unknown", "invalid").Inc()
		http.Error(w, "missing or invalid fields", http.StatusBadRequest)
		return
	}

	id, err := s.resolver.Resolve(r.Context(), event)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidId):
		metrics.PresenceEvents.WithLabelValues(event.Event, "invalid").Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, bloxlink.ErrNotLinked):
		metrics.PresenceEvents.WithLabelValues(event.Event, "not_linked").Inc()
		log.Info().Msg(fmt.Sprintf("[roblox] %s from an account that is not linked", event.Event))
		http.Error(w, "not linked", http.StatusNotFound)
		return
	default:
		metrics.PresenceEvents.WithLabelValues(event.Event, "resolver_error").Inc()
		log.Warn().Err(err).Msg("[roblox] could not resolve presence event")
		http.Error(w, "could not resolve user", http.StatusBadGateway)
		return
	}

	log.Info().Str("user", string(id)).Msg(fmt.Sprintf("[roblox] %s", event.Event))
	switch event.Event {
	case EVENT_JOIN:
		s.presence.MarkPresent(id)
	case EVENT_LEAVE:
		s.presence.MarkAbsent(id)
		s.shifts.AutoEndOnPresenceLoss(id, REASON_LEAVE)
	case EVENT_INACTIVE:
		s.shifts.AutoEndOnPresenceLoss(id, REASON_INACTIVE)
	}
	metrics.PresenceEvents.WithLabelValues(event.Event, "ok").Inc()
	w.Write([]byte("ok"))
}

var ErrInvalidId = errors.New("missing or invalid id")

// Uses the discord id when the game sends one, otherwise asks Bloxlink
// who owns the roblox account
type LinkResolver struct {
	Bloxlink interface {
		RobloxToDiscord(ctx context.Context, robloxId common.RobloxId) (common.UserId, error)
	}
}

func (resolver LinkResolver) Resolve(ctx context.Context, event Event) (common.UserId, error) {

	if discordId, ok := parseId(event.DiscordId); ok {
		return common.UserId(strconv.FormatUint(discordId, 10)), nil
	}
	robloxId, ok := parseId(event.RobloxId)
	if !ok {
		return "", ErrInvalidId
	}
	if resolver.Bloxlink == nil {
		return "", bloxlink.ErrNotLinked
	}
	return resolver.Bloxlink.RobloxToDiscord(ctx, common.RobloxId(robloxId))
}

// Ids come as strings or numbers. Discord snowflakes overflow float64,
// so the raw text is parsed instead
func parseId(raw json.RawMessage) (uint64, bool) {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if text == "" || text == "null" {
		return 0, false
	}
	id, err := strconv.ParseUint(text, 10, 63)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

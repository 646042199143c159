// Package metrics holds the prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PresenceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "presence_events_total",
		Help:      "Presence events received from the game server, by event and outcome.",
	}, []string{"event", "outcome"})

	PlayersInGame = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "netbot",
		Name:      "players_in_game",
		Help:      "Members currently marked as present in the Roblox game.",
	})

	ShiftsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "shifts_started_total",
		Help:      "Shift clocks started, by origin.",
	}, []string{"origin"})

	ShiftsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "shifts_ended_total",
		Help:      "Shift clocks ended, by how they ended.",
	}, []string{"how"})

	ActiveShifts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "netbot",
		Name:      "active_shifts",
		Help:      "Shift clocks currently open.",
	})

	ShiftDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "netbot",
		Name:      "shift_duration_seconds",
		Help:      "Duration of closed shift clocks.",
		Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800},
	})

	Followups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "announcement_followups_total",
		Help:      "Shift announcement followups, by result.",
	}, []string{"result"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "notification_failures_total",
		Help:      "Best effort notifications that could not be delivered.",
	}, []string{"kind"})

	ModerationDrafts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netbot",
		Name:      "moderation_drafts_total",
		Help:      "Pending moderation cards, by how they were resolved.",
	}, []string{"outcome"})
)

package usecase

import (
	"context"
	"time"
)

// Event is the outbound notification for a completed transition. It carries
// only ids and outcome; the notification collaborator resolves the rest.
type Event struct {
	Name       string         `json:"name"`
	LeagueID   string         `json:"league_id"`
	SubjectID  string         `json:"subject_id"`
	Outcome    string         `json:"outcome"`
	OccurredAt time.Time      `json:"occurred_at"`
	Detail     map[string]any `json:"detail,omitempty"`
}

const (
	EventTradeProposed  = "trade.proposed"
	EventTradeResponded = "trade.responded"
	EventTradeExecuted  = "trade.executed"
	EventTradeVetoed    = "trade.vetoed"
	EventTradeExpired   = "trade.expired"
	EventTradeFailed    = "trade.failed"
	EventClaimSubmitted = "waiver.submitted"
	EventClaimCancelled = "waiver.cancelled"
	EventClaimResolved  = "waiver.resolved"
)

// EventPublisher delivers domain events to the notification collaborator.
// Delivery is best-effort; publish failures never roll back a transition.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

package trade

import (
	"fmt"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/roster"
)

// Status is the negotiation state of a proposal.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAccepted     Status = "accepted"
	StatusReviewPeriod Status = "review_period"
	StatusApproved     Status = "approved"
	StatusExecuted     Status = "executed"
	StatusRejected     Status = "rejected"
	StatusCountered    Status = "countered"
	StatusExpired      Status = "expired"
	StatusVetoed       Status = "vetoed"
	StatusFailed       Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusExecuted, StatusRejected, StatusCountered, StatusExpired, StatusVetoed, StatusFailed:
		return true
	}
	return false
}

// ResponseAction is a participant's answer to a pending proposal.
type ResponseAction string

const (
	ActionAccept  ResponseAction = "accept"
	ActionReject  ResponseAction = "reject"
	ActionCounter ResponseAction = "counter"
)

func (a ResponseAction) Valid() bool {
	return a == ActionAccept || a == ActionReject || a == ActionCounter
}

const (
	MinParticipants          = 2
	MaxParticipants          = 4
	MultiTeamMinParticipants = 3
)

// Manifest is the asset bundle one participant gives or receives.
type Manifest struct {
	Players []string
	Picks   []roster.Pick
	FAAB    int64
}

func (m Manifest) Empty() bool {
	return len(m.Players) == 0 && len(m.Picks) == 0 && m.FAAB <= 0
}

// AssetCount counts discrete assets; FAAB counts as one asset when nonzero.
func (m Manifest) AssetCount() int {
	n := len(m.Players) + len(m.Picks)
	if m.FAAB > 0 {
		n++
	}
	return n
}

// Participant is one team's side of a proposal.
type Participant struct {
	TeamID     string
	Give       Manifest
	Receive    Manifest
	Accepted   bool
	AcceptedAt *time.Time
}

// Proposal is a negotiated trade between 2 (standard) or 3-4 (multi-team)
// participants. The first participant is the initiator and auto-accepts.
type Proposal struct {
	ID               string
	LeagueID         string
	Status           Status
	Participants     []Participant
	Message          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpirationAt     time.Time
	ReviewPeriodEnds *time.Time
	VetoVotes        int
	VetoVoters       []string
	VetoThreshold    int
	// SupersededBy links a countered proposal forward to its counter-offer.
	// The link is forward-only; a counter never references its original.
	SupersededBy  string
	ProcessedAt   *time.Time
	FailureReason string
}

func (p Proposal) InitiatorTeamID() string {
	if len(p.Participants) == 0 {
		return ""
	}
	return p.Participants[0].TeamID
}

func (p Proposal) MultiTeam() bool {
	return len(p.Participants) >= MultiTeamMinParticipants
}

// Participant looks up a party by team id.
func (p Proposal) Participant(teamID string) (Participant, bool) {
	for _, part := range p.Participants {
		if part.TeamID == teamID {
			return part, true
		}
	}
	return Participant{}, false
}

// AllAccepted reports whether every required participant has accepted.
// The initiator accepts implicitly at proposal time.
func (p Proposal) AllAccepted() bool {
	for _, part := range p.Participants {
		if !part.Accepted {
			return false
		}
	}
	return true
}

// HasVetoed reports whether the team already cast a veto vote.
func (p Proposal) HasVetoed(teamID string) bool {
	for _, voter := range p.VetoVoters {
		if voter == teamID {
			return true
		}
	}
	return false
}

// ExpiredAt reports whether the proposal outlived its response TTL at the
// given instant. The TTL binds only while responses are still outstanding;
// an accepted trade answers to the review clock instead.
func (p Proposal) ExpiredAt(now time.Time) bool {
	return p.Status == StatusPending && now.After(p.ExpirationAt)
}

func (p Proposal) ValidateBasic() error {
	if p.ID == "" {
		return fmt.Errorf("trade id is required")
	}
	if p.LeagueID == "" {
		return fmt.Errorf("trade league id is required")
	}
	if len(p.Participants) < MinParticipants || len(p.Participants) > MaxParticipants {
		return fmt.Errorf("trade must have between %d and %d participants", MinParticipants, MaxParticipants)
	}

	seen := make(map[string]struct{}, len(p.Participants))
	for _, part := range p.Participants {
		if part.TeamID == "" {
			return fmt.Errorf("trade participant team id is required")
		}
		if _, ok := seen[part.TeamID]; ok {
			return fmt.Errorf("trade participant %s is duplicated", part.TeamID)
		}
		seen[part.TeamID] = struct{}{}

		for _, pick := range append(append([]roster.Pick(nil), part.Give.Picks...), part.Receive.Picks...) {
			if err := pick.Validate(); err != nil {
				return fmt.Errorf("trade pick for %s: %w", part.TeamID, err)
			}
		}
		if part.Give.FAAB < 0 || part.Receive.FAAB < 0 {
			return fmt.Errorf("trade faab amount for %s cannot be negative", part.TeamID)
		}
	}

	return nil
}

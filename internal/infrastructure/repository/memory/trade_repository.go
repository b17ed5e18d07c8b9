package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/astralfield/roster-engine/internal/domain/roster"
	"github.com/astralfield/roster-engine/internal/domain/trade"
)

type TradeRepository struct {
	mu    sync.RWMutex
	items map[string]trade.Proposal
}

func NewTradeRepository() *TradeRepository {
	return &TradeRepository{items: make(map[string]trade.Proposal)}
}

func (r *TradeRepository) Create(_ context.Context, proposal trade.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[proposal.ID]; exists {
		return fmt.Errorf("trade %s already exists", proposal.ID)
	}
	r.items[proposal.ID] = cloneProposal(proposal)
	return nil
}

func (r *TradeRepository) GetByID(_ context.Context, tradeID string) (trade.Proposal, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proposal, ok := r.items[tradeID]
	if !ok {
		return trade.Proposal{}, false, nil
	}

	return cloneProposal(proposal), true, nil
}

func (r *TradeRepository) Update(_ context.Context, proposal trade.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[proposal.ID]; !exists {
		return fmt.Errorf("trade %s not found", proposal.ID)
	}
	r.items[proposal.ID] = cloneProposal(proposal)
	return nil
}

func (r *TradeRepository) ListActiveByLeague(_ context.Context, leagueID string) ([]trade.Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]trade.Proposal, 0)
	for _, proposal := range r.items {
		if proposal.LeagueID == leagueID && !proposal.Status.Terminal() {
			active = append(active, cloneProposal(proposal))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.Before(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})

	return active, nil
}

func (r *TradeRepository) ExistsActiveBetween(_ context.Context, leagueID, initiatorTeamID, responderTeamID string, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, proposal := range r.items {
		if proposal.LeagueID != leagueID || proposal.Status.Terminal() {
			continue
		}
		if proposal.InitiatorTeamID() != initiatorTeamID {
			continue
		}
		if proposal.CreatedAt.Before(since) {
			continue
		}
		if _, ok := proposal.Participant(responderTeamID); ok {
			return true, nil
		}
	}

	return false, nil
}

func cloneProposal(p trade.Proposal) trade.Proposal {
	copied := p
	copied.Participants = make([]trade.Participant, len(p.Participants))
	for i, part := range p.Participants {
		copied.Participants[i] = cloneParticipant(part)
	}
	copied.VetoVoters = append([]string(nil), p.VetoVoters...)
	if p.ReviewPeriodEnds != nil {
		ends := *p.ReviewPeriodEnds
		copied.ReviewPeriodEnds = &ends
	}
	if p.ProcessedAt != nil {
		processed := *p.ProcessedAt
		copied.ProcessedAt = &processed
	}
	return copied
}

func cloneParticipant(part trade.Participant) trade.Participant {
	copied := part
	copied.Give = cloneManifest(part.Give)
	copied.Receive = cloneManifest(part.Receive)
	if part.AcceptedAt != nil {
		accepted := *part.AcceptedAt
		copied.AcceptedAt = &accepted
	}
	return copied
}

func cloneManifest(m trade.Manifest) trade.Manifest {
	copied := m
	copied.Players = append([]string(nil), m.Players...)
	copied.Picks = append([]roster.Pick(nil), m.Picks...)
	return copied
}

package memory

import (
	"context"
	"sync"

	"github.com/astralfield/roster-engine/internal/domain/audit"
)

// AuditRepository is append-only: entries are never updated or removed.
type AuditRepository struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Append(_ context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, cloneEntry(entry))
	return nil
}

func (r *AuditRepository) ListBySubject(_ context.Context, subjectID string) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]audit.Entry, 0)
	for _, entry := range r.entries {
		if entry.SubjectID == subjectID {
			matched = append(matched, cloneEntry(entry))
		}
	}

	return matched, nil
}

// ListByLeague returns the newest entries first.
func (r *AuditRepository) ListByLeague(_ context.Context, leagueID string, limit int) ([]audit.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]audit.Entry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].LeagueID != leagueID {
			continue
		}
		matched = append(matched, cloneEntry(r.entries[i]))
		if limit > 0 && len(matched) >= limit {
			break
		}
	}

	return matched, nil
}

func cloneEntry(e audit.Entry) audit.Entry {
	copied := e
	if e.Detail != nil {
		detail := make(map[string]any, len(e.Detail))
		for k, v := range e.Detail {
			detail[k] = v
		}
		copied.Detail = detail
	}
	return copied
}

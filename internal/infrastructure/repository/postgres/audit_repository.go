package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/astralfield/roster-engine/internal/domain/audit"
	qb "github.com/astralfield/roster-engine/internal/platform/querybuilder"
)

type auditTableModel struct {
	ID              int64     `db:"id"`
	PublicID        string    `db:"public_id"`
	LeaguePublicID  string    `db:"league_public_id"`
	SubjectPublicID string    `db:"subject_public_id"`
	Action          string    `db:"action"`
	ActorID         string    `db:"actor_id"`
	Detail          []byte    `db:"detail"`
	CreatedAt       time.Time `db:"created_at"`
}

// AuditRepository only inserts and reads; the table carries no update or
// delete path.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	detail := []byte("{}")
	if entry.Detail != nil {
		encoded, err := sonic.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		detail = encoded
	}

	const query = `
INSERT INTO audit_log (public_id, league_public_id, subject_public_id, action, actor_id, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.LeagueID, entry.SubjectID, string(entry.Action), entry.ActorID, detail, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID string) ([]audit.Entry, error) {
	query, args, err := qb.Select("*").From("audit_log").
		Where(qb.Eq("subject_public_id", subjectID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list audit by subject query: %w", err)
	}

	var rows []auditTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}

	return entriesFromRows(rows)
}

func (r *AuditRepository) ListByLeague(ctx context.Context, leagueID string, limit int) ([]audit.Entry, error) {
	builder := qb.Select("*").From("audit_log").
		Where(qb.Eq("league_public_id", leagueID)).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list audit by league query: %w", err)
	}

	var rows []auditTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}

	return entriesFromRows(rows)
}

func entriesFromRows(rows []auditTableModel) ([]audit.Entry, error) {
	out := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		var detail map[string]any
		if len(row.Detail) > 0 {
			if err := sonic.Unmarshal(row.Detail, &detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		out = append(out, audit.Entry{
			ID:        row.PublicID,
			LeagueID:  row.LeaguePublicID,
			SubjectID: row.SubjectPublicID,
			Action:    audit.Action(row.Action),
			ActorID:   row.ActorID,
			Detail:    detail,
			CreatedAt: row.CreatedAt,
		})
	}

	return out, nil
}

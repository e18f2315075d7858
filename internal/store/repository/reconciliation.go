package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fortuna/stintstats/internal/reconciliation"
	"github.com/fortuna/stintstats/internal/store"
)

// ReconciliationRepository stores per-game consistency reports
type ReconciliationRepository struct {
	db *store.Database
}

// NewReconciliationRepository creates a new reconciliation repository
func NewReconciliationRepository(db *store.Database) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

// Save upserts a game's latest report
func (r *ReconciliationRepository) Save(ctx context.Context, report *reconciliation.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	query := `
		INSERT INTO reconciliation_reports (game_id, status, mismatches, report, checked_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (game_id) DO UPDATE SET
			status = EXCLUDED.status,
			mismatches = EXCLUDED.mismatches,
			report = EXCLUDED.report,
			checked_at = EXCLUDED.checked_at
	`
	_, err = r.db.DB().ExecContext(ctx, query,
		report.GameID, string(report.Status), report.Mismatches(), string(body), report.CheckedAt)
	if err != nil {
		return fmt.Errorf("saving report for game %s: %w", report.GameID, err)
	}
	return nil
}

// GetByGame returns a game's stored report
func (r *ReconciliationRepository) GetByGame(ctx context.Context, gameID string) (*store.ReconciliationReport, error) {
	query := `
		SELECT game_id, status, mismatches, report, checked_at
		FROM reconciliation_reports
		WHERE game_id = $1
	`

	rep := &store.ReconciliationReport{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID).Scan(
		&rep.GameID, &rep.Status, &rep.Mismatches, &rep.Report, &rep.CheckedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reconciliation report %s: %w", gameID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reconciliation report: %w", err)
	}
	return rep, nil
}

// ListMismatched returns reports with at least one mismatch
func (r *ReconciliationRepository) ListMismatched(ctx context.Context, limit int) ([]*store.ReconciliationReport, error) {
	query := `
		SELECT game_id, status, mismatches, report, checked_at
		FROM reconciliation_reports
		WHERE mismatches > 0
		ORDER BY checked_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reconciliation reports: %w", err)
	}
	defer rows.Close()

	var out []*store.ReconciliationReport
	for rows.Next() {
		rep := &store.ReconciliationReport{}
		if err := rows.Scan(&rep.GameID, &rep.Status, &rep.Mismatches, &rep.Report, &rep.CheckedAt); err != nil {
			return nil, fmt.Errorf("scanning reconciliation report: %w", err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// Package repository holds the sqlite-backed local stores.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/harborline/freightdesk/internal/domain/entity"
)

// HistoryRepository persists the workflow action audit trail.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a history repository.
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Record inserts one action row and sets its assigned id.
func (r *HistoryRepository) Record(ctx context.Context, h *entity.ActionHistory) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO action_history (master_id, action, actor_id, actor_name, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, h.MasterID, h.Action, h.ActorID, h.ActorName, h.Detail, h.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to record action", zap.Error(err))
		return fmt.Errorf("failed to record action: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	h.ID = id
	return nil
}

// ListByMaster returns a master's actions, oldest first.
func (r *HistoryRepository) ListByMaster(ctx context.Context, masterID int64) ([]*entity.ActionHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, master_id, action, actor_id, actor_name, detail, created_at
		FROM action_history
		WHERE master_id = ?
		ORDER BY created_at ASC, id ASC
	`, masterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

// ListRecent returns the latest actions across all masters.
func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*entity.ActionHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, master_id, action, actor_id, actor_name, detail, created_at
		FROM action_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent history: %w", err)
	}
	defer rows.Close()
	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]*entity.ActionHistory, error) {
	var out []*entity.ActionHistory
	for rows.Next() {
		var h entity.ActionHistory
		if err := rows.Scan(&h.ID, &h.MasterID, &h.Action, &h.ActorID, &h.ActorName, &h.Detail, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

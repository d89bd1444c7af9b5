// Package storage persists check run outcomes.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/dollar-ci/internal/core"
)

// DefaultListLimit caps ListOutcomes when no limit is given.
const DefaultListLimit = 50

// Store defines the database operations on recorded outcomes.
type Store interface {
	core.OutcomeRecorder
	ListOutcomes(ctx context.Context, limit int) ([]core.Outcome, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by db.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// RecordOutcome inserts outcome and fills in its ID.
func (s *postgresStore) RecordOutcome(ctx context.Context, outcome *core.Outcome) error {
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO check_run_outcomes
			(delivery_id, action, transition, repo_full_name, head_sha, installation_id,
			 github_status, error, response_status, created_at)
		VALUES
			(:delivery_id, :action, :transition, :repo_full_name, :head_sha, :installation_id,
			 :github_status, :error, :response_status, :created_at)
		RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, query, outcome)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&outcome.ID); err != nil {
			return fmt.Errorf("failed to read outcome id: %w", err)
		}
	}
	return rows.Err()
}

// ListOutcomes returns the most recent outcomes, newest first.
func (s *postgresStore) ListOutcomes(ctx context.Context, limit int) ([]core.Outcome, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT id, delivery_id, action, transition, repo_full_name, head_sha, installation_id,
		       github_status, error, response_status, created_at
		FROM check_run_outcomes
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	var outcomes []core.Outcome
	if err := s.db.SelectContext(ctx, &outcomes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	return outcomes, nil
}

// Package repository implements lead persistence using PostgreSQL.
package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildmart/buildmart-server/internal/domain"
	apperrors "github.com/buildmart/buildmart-server/internal/errors"
)

// LeadRepository archives captured leads in PostgreSQL.
type LeadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository creates a new LeadRepository.
func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Save inserts a lead record.
func (r *LeadRepository) Save(ctx context.Context, lead *domain.Lead) error {
	requirementsJSON, err := json.Marshal(lead.Requirements)
	if err != nil {
		return apperrors.DatabaseError("lead.Save", err)
	}

	query := `
		INSERT INTO leads (
			id, session_id, name, location, category,
			requirements, language, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err = r.pool.Exec(ctx, query,
		lead.ID,
		lead.SessionID,
		lead.Name,
		lead.Location,
		lead.Category,
		requirementsJSON,
		lead.Language,
		lead.CreatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("lead.Save", err)
	}

	return nil
}

// GetByID retrieves a lead by ID.
func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	query := `
		SELECT id, session_id, name, location, category,
			requirements, language, created_at
		FROM leads
		WHERE id = $1`

	var lead domain.Lead
	var requirementsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lead.ID,
		&lead.SessionID,
		&lead.Name,
		&lead.Location,
		&lead.Category,
		&requirementsJSON,
		&lead.Language,
		&lead.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.DatabaseError("lead.GetByID", err)
	}

	if err := json.Unmarshal(requirementsJSON, &lead.Requirements); err != nil {
		return nil, apperrors.DatabaseError("lead.GetByID", err)
	}

	return &lead, nil
}

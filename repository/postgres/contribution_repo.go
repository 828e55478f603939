package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/repository"
)

type contributionRepository struct {
	pool *pgxpool.Pool
}

// NewContributionRepository returns a Postgres-backed implementation of
// ContributionRepository.
func NewContributionRepository(pool *pgxpool.Pool) repository.ContributionRepository {
	return &contributionRepository{pool: pool}
}

const contributionColumns = `
	tracking_id, subject_name, items, state, classification, destination, impact, certificate, created_at, updated_at`

func (r *contributionRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Contribution, error) {
	const query = `
	SELECT` + contributionColumns + `
	FROM contributions
	WHERE tracking_id = $1
	`
	row := r.pool.QueryRow(ctx, query, trackingID)
	return scanContribution(row)
}

func (r *contributionRepository) List(ctx context.Context, filter repository.ContributionFilter) ([]domain.Contribution, error) {
	const query = `
	SELECT` + contributionColumns + `
	FROM contributions
	WHERE ($1 = '' OR state = $1)
	  AND ($2 = '' OR subject_name = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.State, filter.SubjectName, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []domain.Contribution
	for rows.Next() {
		contribution, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, *contribution)
	}
	return contributions, rows.Err()
}

func (r *contributionRepository) Create(ctx context.Context, contribution *domain.Contribution) error {
	if contribution == nil || contribution.TrackingID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO contributions (tracking_id, subject_name, items, state, classification, destination, impact, certificate)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)
	RETURNING created_at, updated_at
	`

	return r.pool.QueryRow(ctx, query,
		contribution.TrackingID,
		contribution.SubjectName,
		marshalJSON(contribution.Items),
		string(contribution.State),
		string(contribution.Classification),
		contribution.Destination,
		marshalJSON(contribution.Impact),
		marshalNullable(contribution.Certificate),
	).Scan(&contribution.CreatedAt, &contribution.UpdatedAt)
}

// UpdateFromState persists a state transition, conditioned on the
// stored state being unchanged since the caller read it. When the
// transition carries a certificate the write additionally requires that
// no certificate exists yet, so a certificate can never be replaced.
func (r *contributionRepository) UpdateFromState(ctx context.Context, contribution *domain.Contribution, expected domain.State) error {
	if contribution == nil || contribution.TrackingID == "" {
		return domain.ErrInvalidPayload
	}

	query := `
	UPDATE contributions
	SET items = $3,
		state = $4,
		classification = NULLIF($5, ''),
		destination = NULLIF($6, ''),
		impact = $7,
		certificate = COALESCE(certificate, $8),
		updated_at = NOW()
	WHERE tracking_id = $1 AND state = $2
	`
	if contribution.Certificate != nil {
		query += ` AND certificate IS NULL`
	}
	query += ` RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		contribution.TrackingID,
		string(expected),
		marshalJSON(contribution.Items),
		string(contribution.State),
		string(contribution.Classification),
		contribution.Destination,
		marshalJSON(contribution.Impact),
		marshalNullable(contribution.Certificate),
	).Scan(&contribution.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Zero rows means either the record is gone or another transition
	// won the race; distinguish the two for the caller.
	exists, existsErr := r.ExistsTrackingID(ctx, contribution.TrackingID)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return domain.ErrContributionNotFound
	}
	return domain.ErrConcurrentModification
}

func (r *contributionRepository) ExistsTrackingID(ctx context.Context, trackingID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM contributions WHERE tracking_id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, trackingID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanContribution(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Contribution, error) {
	var contribution domain.Contribution
	var (
		items          []byte
		classification *string
		destination    *string
		impact         []byte
		cert           []byte
	)

	if err := row.Scan(
		&contribution.TrackingID,
		&contribution.SubjectName,
		&items,
		&contribution.State,
		&classification,
		&destination,
		&impact,
		&cert,
		&contribution.CreatedAt,
		&contribution.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}

	if classification != nil {
		contribution.Classification = domain.Classification(*classification)
	}
	if destination != nil {
		contribution.Destination = *destination
	}
	if err := unmarshalJSON(items, &contribution.Items); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(impact, &contribution.Impact); err != nil {
		return nil, err
	}
	if len(cert) > 0 {
		contribution.Certificate = &domain.Certificate{}
		if err := unmarshalJSON(cert, contribution.Certificate); err != nil {
			return nil, err
		}
	}

	return &contribution, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

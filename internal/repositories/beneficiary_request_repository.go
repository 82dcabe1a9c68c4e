package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"helpinghands/internal/models"
)

// beneficiaryRequestRepository implements BeneficiaryRequestRepository on Postgres
type beneficiaryRequestRepository struct {
	*BaseRepository
}

const requestColumns = `id, beneficiary_id, campaign_id, request_message, document_url, status, reviewed_by, reviewed_at, created_at`

func scanRequest(row scanner) (*models.BeneficiaryRequest, error) {
	var (
		req        models.BeneficiaryRequest
		docURL     sql.NullString
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
	)
	err := row.Scan(
		&req.ID, &req.BeneficiaryID, &req.CampaignID, &req.RequestMessage,
		&docURL, &req.Status, &reviewedBy, &reviewedAt, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.DocumentURL = stringPtr(docURL)
	if reviewedBy.Valid {
		id := reviewedBy.Int64
		req.ReviewedBy = &id
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		req.ReviewedAt = &at
	}
	return &req, nil
}

func (r *beneficiaryRequestRepository) Create(ctx context.Context, req *models.BeneficiaryRequest) error {
	query := `
		INSERT INTO beneficiary_requests (beneficiary_id, campaign_id, request_message, document_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.QueryRowContext(ctx, query,
		req.BeneficiaryID, req.CampaignID, req.RequestMessage,
		nullString(req.DocumentURL), req.Status, req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to create beneficiary request: %w", r.mapError(err))
	}
	return nil
}

func (r *beneficiaryRequestRepository) GetByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error) {
	req, err := scanRequest(r.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM beneficiary_requests WHERE id = $1`, id))
	if err != nil {
		return nil, r.mapError(err)
	}
	return req, nil
}

func (r *beneficiaryRequestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.BeneficiaryRequest, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.BeneficiaryID != nil {
		args = append(args, *filter.BeneficiaryID)
		where = append(where, fmt.Sprintf("beneficiary_id = $%d", len(args)))
	}

	query := `SELECT ` + requestColumns + ` FROM beneficiary_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list beneficiary requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.BeneficiaryRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *beneficiaryRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	var n int64
	err := r.QueryRowContext(ctx, `SELECT COUNT(*) FROM beneficiary_requests WHERE status = $1`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count beneficiary requests: %w", err)
	}
	return n, nil
}

// Review only matches pending rows, so two reviewers racing on the same
// request cannot both succeed.
func (r *beneficiaryRequestRepository) Review(ctx context.Context, id int64, status models.RequestStatus, reviewerID int64, at time.Time) (*models.BeneficiaryRequest, error) {
	query := `
		UPDATE beneficiary_requests
		SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + requestColumns

	req, err := scanRequest(r.QueryRowContext(ctx, query, id, status, reviewerID, at))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, ErrStale
		}
		return nil, err
	}
	return req, nil
}

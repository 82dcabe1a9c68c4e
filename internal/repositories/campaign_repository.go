package repositories

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"helpinghands/internal/models"
)

// campaignRepository implements CampaignRepository on Postgres
type campaignRepository struct {
	*BaseRepository
}

const campaignColumns = `id, title, category, description, target_amount, collected_amount, status, created_by, created_at`

func scanCampaign(row scanner) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID, &c.Title, &c.Category, &c.Description,
		&c.TargetAmount, &c.CollectedAmount, &c.Status,
		&c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns (title, category, description, target_amount, collected_amount, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.QueryRowContext(ctx, query,
		c.Title, c.Category, c.Description, c.TargetAmount,
		c.CollectedAmount, c.Status, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", r.mapError(err))
	}
	return nil
}

func (r *campaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	c, err := scanCampaign(r.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, r.mapError(err)
	}
	return c, nil
}

func (r *campaignRepository) List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	var args []interface{}
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY id`

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]*models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepository) Update(ctx context.Context, c *models.Campaign) error {
	query := `
		UPDATE campaigns
		SET title = $2, category = $3, description = $4, target_amount = $5, status = $6
		WHERE id = $1
		RETURNING collected_amount`

	err := r.QueryRowContext(ctx, query,
		c.ID, c.Title, c.Category, c.Description, c.TargetAmount, c.Status,
	).Scan(&c.CollectedAmount)
	if err != nil {
		return r.mapError(err)
	}
	return nil
}

func (r *campaignRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return r.requireAffected(result, ErrNotFound)
}

func (r *campaignRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return n, nil
}

// IncrementCollected adds amount in place; the status guard and the
// increment happen in the same statement.
func (r *campaignRepository) IncrementCollected(ctx context.Context, id int64, amount int64) (*models.Campaign, error) {
	query := `
		UPDATE campaigns SET collected_amount = collected_amount + $2
		WHERE id = $1 AND status = 'active'
		RETURNING ` + campaignColumns

	c, err := scanCampaign(r.QueryRowContext(ctx, query, id, amount))
	if err != nil {
		return nil, r.mapError(err)
	}
	return c, nil
}

func (r *campaignRepository) GetRefs(ctx context.Context, ids []int64) (map[int64]*models.CampaignRef, error) {
	refs := make(map[int64]*models.CampaignRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}

	rows, err := r.QueryContext(ctx, `SELECT id, title, category FROM campaigns WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve campaigns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.CampaignRef
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.Category); err != nil {
			return nil, fmt.Errorf("failed to scan campaign ref: %w", err)
		}
		refs[ref.ID] = &ref
	}
	return refs, rows.Err()
}

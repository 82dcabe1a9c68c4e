package repositories

import (
	"context"
	"fmt"

	"helpinghands/internal/models"
)

// donationRepository implements DonationRepository on Postgres
type donationRepository struct {
	*BaseRepository
}

const donationColumns = `id, donor_id, campaign_id, amount, points_earned, payment_status, donated_at`

func scanDonation(row scanner) (*models.Donation, error) {
	var d models.Donation
	err := row.Scan(
		&d.ID, &d.DonorID, &d.CampaignID, &d.Amount,
		&d.PointsEarned, &d.PaymentStatus, &d.DonatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *donationRepository) Create(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (donor_id, campaign_id, amount, points_earned, payment_status, donated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.QueryRowContext(ctx, query,
		d.DonorID, d.CampaignID, d.Amount, d.PointsEarned, d.PaymentStatus, d.DonatedAt,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to record donation: %w", r.mapError(err))
	}
	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	d, err := scanDonation(r.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id))
	if err != nil {
		return nil, r.mapError(err)
	}
	return d, nil
}

func (r *donationRepository) List(ctx context.Context, filter DonationFilter) ([]*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations`
	var args []interface{}
	if filter.DonorID != nil {
		query += ` WHERE donor_id = $1`
		args = append(args, *filter.DonorID)
	}
	query += ` ORDER BY donated_at DESC, id DESC`

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	donations := make([]*models.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

func (r *donationRepository) SumAmount(ctx context.Context) (int64, error) {
	var total int64
	if err := r.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM donations`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum donations: %w", r.mapError(err))
	}
	return total, nil
}

// TotalsByCampaign joins against campaigns, so donations to deleted
// campaigns are left out.
func (r *donationRepository) TotalsByCampaign(ctx context.Context) ([]*models.CampaignTotal, error) {
	query := `
		SELECT c.id, c.title, SUM(d.amount) AS total
		FROM donations d
		JOIN campaigns c ON c.id = d.campaign_id
		GROUP BY c.id, c.title
		ORDER BY total DESC, c.id ASC`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate donations: %w", err)
	}
	defer rows.Close()

	totals := make([]*models.CampaignTotal, 0)
	for rows.Next() {
		var t models.CampaignTotal
		if err := rows.Scan(&t.CampaignID, &t.CampaignTitle, &t.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan campaign total: %w", err)
		}
		totals = append(totals, &t)
	}
	return totals, rows.Err()
}

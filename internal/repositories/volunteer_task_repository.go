package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"helpinghands/internal/models"
)

// volunteerTaskRepository implements VolunteerTaskRepository on Postgres
type volunteerTaskRepository struct {
	*BaseRepository
}

const taskColumns = `id, volunteer_id, title, description, report_url, points_earned, status, assigned_by, created_at`

func scanTask(row scanner) (*models.VolunteerTask, error) {
	var (
		task      models.VolunteerTask
		reportURL sql.NullString
	)
	err := row.Scan(
		&task.ID, &task.VolunteerID, &task.Title, &task.Description,
		&reportURL, &task.PointsEarned, &task.Status, &task.AssignedBy, &task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.ReportURL = stringPtr(reportURL)
	return &task, nil
}

func (r *volunteerTaskRepository) Create(ctx context.Context, task *models.VolunteerTask) error {
	query := `
		INSERT INTO volunteer_tasks (volunteer_id, title, description, points_earned, status, assigned_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.QueryRowContext(ctx, query,
		task.VolunteerID, task.Title, task.Description, task.PointsEarned,
		task.Status, task.AssignedBy, task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to create volunteer task: %w", r.mapError(err))
	}
	return nil
}

func (r *volunteerTaskRepository) GetByID(ctx context.Context, id int64) (*models.VolunteerTask, error) {
	task, err := scanTask(r.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM volunteer_tasks WHERE id = $1`, id))
	if err != nil {
		return nil, r.mapError(err)
	}
	return task, nil
}

func (r *volunteerTaskRepository) List(ctx context.Context, filter TaskFilter) ([]*models.VolunteerTask, error) {
	query := `SELECT ` + taskColumns + ` FROM volunteer_tasks`
	var args []interface{}
	if filter.VolunteerID != nil {
		query += ` WHERE volunteer_id = $1`
		args = append(args, *filter.VolunteerID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteer tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.VolunteerTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *volunteerTaskRepository) SubmitReport(ctx context.Context, id int64, reportURL string) (*models.VolunteerTask, error) {
	query := `
		UPDATE volunteer_tasks SET report_url = $2, status = 'submitted'
		WHERE id = $1 AND status <> 'approved'
		RETURNING ` + taskColumns

	task, err := scanTask(r.QueryRowContext(ctx, query, id, reportURL))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, ErrStale
		}
		return nil, err
	}
	return task, nil
}

func (r *volunteerTaskRepository) Approve(ctx context.Context, id int64, points int64) (*models.VolunteerTask, error) {
	query := `
		UPDATE volunteer_tasks SET points_earned = $2, status = 'approved'
		WHERE id = $1 AND status = 'submitted'
		RETURNING ` + taskColumns

	task, err := scanTask(r.QueryRowContext(ctx, query, id, points))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, ErrStale
		}
		return nil, err
	}
	return task, nil
}

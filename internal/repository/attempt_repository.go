package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
)

// AttemptRepositoryInterface is append-only: there is no update or delete path.
type AttemptRepositoryInterface interface {
	Record(ctx context.Context, a *model.DeliveryAttempt) error
	ListByCampaign(ctx context.Context, campaignID int) ([]model.DeliveryAttempt, error)
	ListByCampaigns(ctx context.Context, campaignIDs []int, status string) ([]model.DeliveryAttempt, error)
	CountByStatus(ctx context.Context, campaignIDs []int) (map[string]int, error)
}

type AttemptRepository struct {
	DB *sql.DB
}

// Record inserts one attempt and returns its generated ID
func (r *AttemptRepository) Record(ctx context.Context, a *model.DeliveryAttempt) error {
	query := `
        INSERT INTO delivery_attempts (campaign_id, attempt_time, status, server_response)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query, a.CampaignID, a.AttemptTime, a.Status, a.ServerResponse).Scan(&a.ID)
	return appErrors.NewPersistence("record delivery attempt", err)
}

func (r *AttemptRepository) ListByCampaign(ctx context.Context, campaignID int) ([]model.DeliveryAttempt, error) {
	query := `
        SELECT id, campaign_id, attempt_time, status, server_response
        FROM delivery_attempts
        WHERE campaign_id=$1
        ORDER BY id
    `
	return r.list(ctx, query, campaignID)
}

// ListByCampaigns returns attempts of the given campaigns, optionally filtered by status.
func (r *AttemptRepository) ListByCampaigns(ctx context.Context, campaignIDs []int, status string) ([]model.DeliveryAttempt, error) {
	if len(campaignIDs) == 0 {
		return []model.DeliveryAttempt{}, nil
	}
	query := `
        SELECT id, campaign_id, attempt_time, status, server_response
        FROM delivery_attempts
        WHERE campaign_id = ANY($1)`
	args := []interface{}{pq.Array(campaignIDs)}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", len(args)+1)
		args = append(args, status)
	}
	query += " ORDER BY id"
	return r.list(ctx, query, args...)
}

func (r *AttemptRepository) CountByStatus(ctx context.Context, campaignIDs []int) (map[string]int, error) {
	stats := map[string]int{model.AttemptSuccessful: 0, model.AttemptFailed: 0}
	if len(campaignIDs) == 0 {
		return stats, nil
	}
	query := `SELECT status, COUNT(*) FROM delivery_attempts WHERE campaign_id = ANY($1) GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(campaignIDs))
	if err != nil {
		return nil, appErrors.NewPersistence("count attempts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, appErrors.NewPersistence("count attempts", err)
		}
		stats[status] = count
	}
	return stats, appErrors.NewPersistence("count attempts", rows.Err())
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...any) ([]model.DeliveryAttempt, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewPersistence("list attempts", err)
	}
	defer rows.Close()

	attempts := []model.DeliveryAttempt{}
	for rows.Next() {
		var a model.DeliveryAttempt
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.AttemptTime, &a.Status, &a.ServerResponse); err != nil {
			return nil, appErrors.NewPersistence("list attempts", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, appErrors.NewPersistence("list attempts", rows.Err())
}

var _ AttemptRepositoryInterface = (*AttemptRepository)(nil)

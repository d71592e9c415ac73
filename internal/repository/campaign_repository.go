package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
)

// CampaignFilter narrows ListCampaigns. A nil OwnerID lists every owner.
type CampaignFilter struct {
	OwnerID    *int
	ActiveOnly bool
	Status     string
	Offset     int
	Limit      int
}

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, f CampaignFilter) ([]*model.Campaign, int, error)

	// Lifecycle
	UpdateStatus(ctx context.Context, campaignID int, status string) error
	Disable(ctx context.Context, campaignID int) error
	ListDispatchable(ctx context.Context, now time.Time) ([]*model.Campaign, error)

	// Recipient association
	SetClients(ctx context.Context, campaignID int, clientIDs []int) error
	CountRecipients(ctx context.Context, campaignIDs []int) (map[int]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, start_time, end_time, status, message_id, owner_id, is_active, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.StartTime, &c.EndTime, &c.Status, &c.MessageID, &c.OwnerID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

// Create inserts the campaign and its recipient association in one transaction.
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusCreated
	}
	query := `
        INSERT INTO campaigns (start_time, end_time, status, message_id, owner_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, query, c.StartTime, c.EndTime, c.Status, c.MessageID, c.OwnerID, c.IsActive, c.CreatedAt).Scan(&c.ID); err != nil {
			return err
		}
		return replaceClients(ctx, tx, c.ID, c.ClientIDs)
	})
	return appErrors.NewPersistence("create campaign", err)
}

// Update rewrites the editable fields and the recipient association.
func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET start_time=$1, end_time=$2, message_id=$3, owner_id=$4, updated_at=NOW()
        WHERE id=$5
    `
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, c.StartTime, c.EndTime, c.MessageID, c.OwnerID, c.ID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return appErrors.NewCampaignNotFound(c.ID)
		}
		return replaceClients(ctx, tx, c.ID, c.ClientIDs)
	})
	return appErrors.NewPersistence("update campaign", err)
}

// Delete removes the campaign; attempts and association rows cascade.
func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewPersistence("delete campaign", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, appErrors.NewPersistence("get campaign", err)
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT client_id FROM campaign_clients WHERE campaign_id=$1 ORDER BY client_id`, id)
	if err != nil {
		return nil, appErrors.NewPersistence("get campaign clients", err)
	}
	if c.ClientIDs, err = scanIDs(rows); err != nil {
		return nil, appErrors.NewPersistence("get campaign clients", err)
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, f CampaignFilter) ([]*model.Campaign, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if f.OwnerID != nil {
		where += fmt.Sprintf(" AND owner_id=$%d", argPos)
		args = append(args, *f.OwnerID)
		argPos++
	}
	if f.ActiveOnly {
		where += " AND is_active=TRUE"
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, f.Status)
		argPos++
	}

	// Count total
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, appErrors.NewPersistence("count campaigns", err)
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, appErrors.NewPersistence("list campaigns", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, appErrors.NewPersistence("list campaigns", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, appErrors.NewPersistence("list campaigns", err)
	}
	return campaigns, total, nil
}

// ====================== Lifecycle ======================

// UpdateStatus is the single-row status write made once per dispatch invocation.
// A disabled row is never moved to another status: the write is skipped and
// appErrors.ErrCampaignDisabled returned.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3 AND (status <> $4 OR $1 = $4)`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now(), campaignID, model.StatusDisabled)
	if err != nil {
		return appErrors.NewPersistence("update campaign status", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM campaigns WHERE id=$1)`, campaignID).Scan(&exists); err != nil {
		return appErrors.NewPersistence("update campaign status", err)
	}
	if !exists {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return appErrors.ErrCampaignDisabled
}

func (r *CampaignRepository) Disable(ctx context.Context, campaignID int) error {
	query := `UPDATE campaigns SET is_active=FALSE, status=$1, updated_at=NOW() WHERE id=$2`
	res, err := r.DB.ExecContext(ctx, query, model.StatusDisabled, campaignID)
	if err != nil {
		return appErrors.NewPersistence("disable campaign", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	return nil
}

// ListDispatchable returns active, non-terminal campaigns whose window contains now.
func (r *CampaignRepository) ListDispatchable(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE is_active=TRUE AND status IN ($1, $2) AND start_time <= $3 AND end_time >= $3
        ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, model.StatusCreated, model.StatusStarted, now)
	if err != nil {
		return nil, appErrors.NewPersistence("list dispatchable campaigns", err)
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, appErrors.NewPersistence("list dispatchable campaigns", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, appErrors.NewPersistence("list dispatchable campaigns", rows.Err())
}

// ====================== Recipient association ======================

func (r *CampaignRepository) SetClients(ctx context.Context, campaignID int, clientIDs []int) error {
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		return replaceClients(ctx, tx, campaignID, clientIDs)
	})
	return appErrors.NewPersistence("set campaign clients", err)
}

func replaceClients(ctx context.Context, q queryer, campaignID int, clientIDs []int) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM campaign_clients WHERE campaign_id=$1`, campaignID); err != nil {
		return err
	}
	if len(clientIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
        INSERT INTO campaign_clients (campaign_id, client_id)
        SELECT $1, unnest($2::int[])
        ON CONFLICT DO NOTHING`, campaignID, pq.Array(clientIDs))
	return err
}

// CountRecipients returns the current association size per campaign.
func (r *CampaignRepository) CountRecipients(ctx context.Context, campaignIDs []int) (map[int]int, error) {
	counts := make(map[int]int, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return counts, nil
	}
	query := `SELECT campaign_id, COUNT(*) FROM campaign_clients WHERE campaign_id = ANY($1) GROUP BY campaign_id`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(campaignIDs))
	if err != nil {
		return nil, appErrors.NewPersistence("count recipients", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, appErrors.NewPersistence("count recipients", err)
		}
		counts[id] = n
	}
	return counts, appErrors.NewPersistence("count recipients", rows.Err())
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

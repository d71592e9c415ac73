package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
)

// ClientRepositoryInterface defines methods used by services
type ClientRepositoryInterface interface {
	Create(ctx context.Context, c *model.Client) error
	Update(ctx context.Context, c *model.Client) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Client, error)
	ListAll(ctx context.Context) ([]model.Client, error)
	ListVisibleTo(ctx context.Context, userID int) ([]model.Client, error)
	VisibleTo(ctx context.Context, clientID, userID int) (bool, error)
	ListForCampaign(ctx context.Context, campaignID int) ([]model.Client, error)
	ExistingIDs(ctx context.Context, ids []int) ([]int, error)
}

// ClientRepository is the concrete implementation
type ClientRepository struct {
	DB *sql.DB
}

const clientColumns = `c.id, c.email, c.full_name, c.comment, c.owner_id`

func (r *ClientRepository) Create(ctx context.Context, c *model.Client) error {
	query := `
        INSERT INTO clients (email, full_name, comment, owner_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query, c.Email, c.FullName, c.Comment, c.OwnerID).Scan(&c.ID)
	if isUniqueViolation(err) {
		return appErrors.NewValidation("email", "a client with this email already exists")
	}
	return appErrors.NewPersistence("create client", err)
}

func (r *ClientRepository) Update(ctx context.Context, c *model.Client) error {
	query := `UPDATE clients SET email=$1, full_name=$2, comment=$3 WHERE id=$4`
	res, err := r.DB.ExecContext(ctx, query, c.Email, c.FullName, c.Comment, c.ID)
	if isUniqueViolation(err) {
		return appErrors.NewValidation("email", "a client with this email already exists")
	}
	if err != nil {
		return appErrors.NewPersistence("update client", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewClientNotFound(c.ID)
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewPersistence("delete client", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewClientNotFound(id)
	}
	return nil
}

// GetByID fetches a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c WHERE c.id = $1`
	var c model.Client
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Email, &c.FullName, &c.Comment, &c.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewClientNotFound(id)
		}
		return nil, appErrors.NewPersistence("get client", err)
	}
	return &c, nil
}

func (r *ClientRepository) ListAll(ctx context.Context) ([]model.Client, error) {
	return r.list(ctx, "list clients", `SELECT `+clientColumns+` FROM clients c ORDER BY c.id`)
}

// ListVisibleTo returns clients linked to the user's campaigns or created by the user.
func (r *ClientRepository) ListVisibleTo(ctx context.Context, userID int) ([]model.Client, error) {
	query := `
        SELECT DISTINCT ` + clientColumns + `
        FROM clients c
        LEFT JOIN campaign_clients cc ON cc.client_id = c.id
        LEFT JOIN campaigns m ON m.id = cc.campaign_id
        WHERE m.owner_id = $1 OR c.owner_id = $1
        ORDER BY c.id
    `
	return r.list(ctx, "list visible clients", query, userID)
}

// VisibleTo reports whether the client is in ListVisibleTo(userID).
func (r *ClientRepository) VisibleTo(ctx context.Context, clientID, userID int) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1
            FROM clients c
            LEFT JOIN campaign_clients cc ON cc.client_id = c.id
            LEFT JOIN campaigns m ON m.id = cc.campaign_id
            WHERE c.id = $1 AND (m.owner_id = $2 OR c.owner_id = $2)
        )
    `
	var visible bool
	if err := r.DB.QueryRowContext(ctx, query, clientID, userID).Scan(&visible); err != nil {
		return false, appErrors.NewPersistence("check client visibility", err)
	}
	return visible, nil
}

// ListForCampaign resolves the live recipient set of a campaign
func (r *ClientRepository) ListForCampaign(ctx context.Context, campaignID int) ([]model.Client, error) {
	query := `
        SELECT ` + clientColumns + `
        FROM clients c
        JOIN campaign_clients cc ON cc.client_id = c.id
        WHERE cc.campaign_id = $1
        ORDER BY c.id
    `
	return r.list(ctx, "list campaign clients", query, campaignID)
}

// ExistingIDs returns the subset of ids present in the store.
func (r *ClientRepository) ExistingIDs(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return []int{}, nil
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM clients WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return nil, appErrors.NewPersistence("check client ids", err)
	}
	found, err := scanIDs(rows)
	return found, appErrors.NewPersistence("check client ids", err)
}

func (r *ClientRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewPersistence(op, err)
	}
	defer rows.Close()

	clients := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.Comment, &c.OwnerID); err != nil {
			return nil, appErrors.NewPersistence(op, err)
		}
		clients = append(clients, c)
	}
	return clients, appErrors.NewPersistence(op, rows.Err())
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)

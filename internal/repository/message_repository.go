package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/mailing-service/internal/errors"
	"github.com/unclebandit/mailing-service/internal/model"
)

type MessageRepositoryInterface interface {
	Create(ctx context.Context, m *model.Message) error
	Update(ctx context.Context, m *model.Message) error
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*model.Message, error)
	ListAll(ctx context.Context) ([]model.Message, error)
	ListVisibleTo(ctx context.Context, userID int) ([]model.Message, error)
}

type MessageRepository struct {
	DB *sql.DB
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	query := `INSERT INTO messages (subject, body, owner_id) VALUES ($1, $2, $3) RETURNING id`
	err := r.DB.QueryRowContext(ctx, query, m.Subject, m.Body, m.OwnerID).Scan(&m.ID)
	return appErrors.NewPersistence("create message", err)
}

func (r *MessageRepository) Update(ctx context.Context, m *model.Message) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE messages SET subject=$1, body=$2 WHERE id=$3`, m.Subject, m.Body, m.ID)
	if err != nil {
		return appErrors.NewPersistence("update message", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewMessageNotFound(m.ID)
	}
	return nil
}

// Delete removes the message; campaigns referencing it cascade.
func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return appErrors.NewPersistence("delete message", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewMessageNotFound(id)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id int) (*model.Message, error) {
	var m model.Message
	err := r.DB.QueryRowContext(ctx, `SELECT id, subject, body, owner_id FROM messages WHERE id=$1`, id).
		Scan(&m.ID, &m.Subject, &m.Body, &m.OwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewMessageNotFound(id)
		}
		return nil, appErrors.NewPersistence("get message", err)
	}
	return &m, nil
}

func (r *MessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	return r.list(ctx, "list messages", `SELECT id, subject, body, owner_id FROM messages ORDER BY id`)
}

// ListVisibleTo returns messages used by the user's campaigns or created by the user.
func (r *MessageRepository) ListVisibleTo(ctx context.Context, userID int) ([]model.Message, error) {
	query := `
        SELECT DISTINCT m.id, m.subject, m.body, m.owner_id
        FROM messages m
        LEFT JOIN campaigns c ON c.message_id = m.id
        WHERE c.owner_id = $1 OR m.owner_id = $1
        ORDER BY m.id
    `
	return r.list(ctx, "list visible messages", query, userID)
}

func (r *MessageRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, appErrors.NewPersistence(op, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.Subject, &m.Body, &m.OwnerID); err != nil {
			return nil, appErrors.NewPersistence(op, err)
		}
		messages = append(messages, m)
	}
	return messages, appErrors.NewPersistence(op, rows.Err())
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)

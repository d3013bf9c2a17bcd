package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
)

type clientRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type ClientRepository struct{ db *sqlx.DB }

func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *client.Client) error {
	query := `INSERT INTO clients (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("クライアント作成に失敗: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*client.Client, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, client.ErrClientNotFound
	}
	var row clientRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM clients WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, client.ErrClientNotFound
		}
		return nil, fmt.Errorf("クライアント取得に失敗: %w", err)
	}
	return &client.Client{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]*client.Client, error) {
	var rows []clientRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM clients ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("クライアント一覧取得に失敗: %w", err)
	}
	result := make([]*client.Client, len(rows))
	for i, row := range rows {
		result[i] = &client.Client{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}
	}
	return result, nil
}

var _ client.Repository = (*ClientRepository)(nil)

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
)

type ownerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type OwnerRepository struct{ db *sqlx.DB }

func NewOwnerRepository(db *sqlx.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

func (r *OwnerRepository) Create(ctx context.Context, o *owner.Owner) error {
	query := `INSERT INTO owners (id, name, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, o.ID, o.Name, o.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("オーナー作成に失敗: %w", err)
	}
	return nil
}

func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*owner.Owner, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, owner.ErrOwnerNotFound
	}
	var row ownerRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM owners WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, owner.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("オーナー取得に失敗: %w", err)
	}
	return &owner.Owner{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]*owner.Owner, error) {
	var rows []ownerRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM owners ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("オーナー一覧取得に失敗: %w", err)
	}
	result := make([]*owner.Owner, len(rows))
	for i, row := range rows {
		result[i] = &owner.Owner{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}
	}
	return result, nil
}

var _ owner.Repository = (*OwnerRepository)(nil)

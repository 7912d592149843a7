// internal/repository/category_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"zapdispatch/internal/model"
)

type CategoryRepositoryInterface interface {
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Category, error)
	Count(ctx context.Context) (int, error)
}

type CategoryRepository struct {
	DB *sql.DB
}

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO categories (id, name, color, created_at)
        VALUES ($1, $2, $3, $4)
    `, c.ID, c.Name, c.Color, c.CreatedAt)
	return err
}

func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	_, err := r.DB.ExecContext(ctx, `
        UPDATE categories SET name=$1, color=$2 WHERE id=$3
    `, c.Name, c.Color, c.ID)
	return err
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	return err
}

func (r *CategoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, name, color, created_at FROM categories ORDER BY name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n)
	return n, err
}

var _ CategoryRepositoryInterface = (*CategoryRepository)(nil)

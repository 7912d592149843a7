// internal/repository/contact_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/model"
)

type ContactRepositoryInterface interface {
	Create(ctx context.Context, c *model.Contact) error
	Update(ctx context.Context, c *model.Contact) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	List(ctx context.Context, search, categoryID string) ([]*model.Contact, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Contact, error)
	BulkCreate(ctx context.Context, contacts []*model.Contact) (int, error)
	SetCategories(ctx context.Context, contactID string, categoryIDs []string) error
	Count(ctx context.Context) (int, error)
}

type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO contacts (id, name, whatsapp, created_at)
        VALUES ($1, $2, $3, $4)
    `, c.ID, c.Name, c.WhatsApp, c.CreatedAt)
	return err
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE contacts SET name=$1, whatsapp=$2 WHERE id=$3
    `, c.Name, c.WhatsApp, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewContactNotFound(c.ID)
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return apperrors.NewContactInUse(id)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewContactNotFound(id)
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	var c model.Contact
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, name, whatsapp, created_at FROM contacts WHERE id=$1
    `, id).Scan(&c.ID, &c.Name, &c.WhatsApp, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewContactNotFound(id)
		}
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, `
        SELECT category_id FROM contact_categories WHERE contact_id=$1
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var catID string
		if err := rows.Scan(&catID); err != nil {
			return nil, err
		}
		c.CategoryIDs = append(c.CategoryIDs, catID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) List(ctx context.Context, search, categoryID string) ([]*model.Contact, error) {
	builder := psql.Select("c.id", "c.name", "c.whatsapp", "c.created_at").
		From("contacts c").OrderBy("c.name")
	if search != "" {
		like := "%" + search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"c.name": like},
			sq.Like{"c.whatsapp": like},
		})
	}
	if categoryID != "" {
		builder = builder.Join("contact_categories cc ON cc.contact_id = c.id").
			Where(sq.Eq{"cc.category_id": categoryID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryContacts(ctx, query, args...)
}

func (r *ContactRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Contact, error) {
	if len(ids) == 0 {
		return []*model.Contact{}, nil
	}
	return r.queryContacts(ctx, `
        SELECT id, name, whatsapp, created_at FROM contacts
        WHERE id = ANY($1)
        ORDER BY created_at, id
    `, pq.Array(ids))
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]*model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.WhatsApp, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, &c)
	}
	return contacts, rows.Err()
}

// BulkCreate inserts imported contacts, skipping numbers that already
// exist. Returns how many rows were actually inserted.
func (r *ContactRepository) BulkCreate(ctx context.Context, contacts []*model.Contact) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	now := time.Now().UTC()
	for _, c := range contacts {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = now
		res, err := tx.ExecContext(ctx, `
            INSERT INTO contacts (id, name, whatsapp, created_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (whatsapp) DO NOTHING
        `, c.ID, c.Name, c.WhatsApp, c.CreatedAt)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *ContactRepository) SetCategories(ctx context.Context, contactID string, categoryIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contact_categories WHERE contact_id=$1`, contactID); err != nil {
		return err
	}
	for _, catID := range categoryIDs {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO contact_categories (contact_id, category_id) VALUES ($1, $2)
        `, contactID, catID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ContactRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts`).Scan(&n)
	return n, err
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)

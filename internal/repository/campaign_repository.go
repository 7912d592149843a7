// internal/repository/campaign_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign, msgs []*model.CampaignMessage) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)

	// ClaimRun is the draft->running transition. It is a single conditional
	// UPDATE so that of two concurrent starts exactly one wins; the loser
	// gets ErrInvalidState.
	ClaimRun(ctx context.Context, id string) (*model.Campaign, error)
	MarkCompleted(ctx context.Context, id string) (*model.Campaign, error)
	RequeueFailed(ctx context.Context, id string) (*model.Campaign, int, error)
	Count(ctx context.Context) (int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const campaignColumns = `id, name, status, message_template, total_contacts, sent_count, failed_count, created_at, started_at, completed_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.MessageTemplate, &c.TotalContacts,
		&c.SentCount, &c.FailedCount, &c.CreatedAt, &c.StartedAt, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts the campaign and its full message queue in one transaction
// so a campaign can never exist with a partial queue.
func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign, msgs []*model.CampaignMessage) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	c.CreatedAt = time.Now().UTC()
	c.TotalContacts = len(msgs)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO campaigns (id, name, status, message_template, total_contacts, sent_count, failed_count, created_at)
        VALUES ($1, $2, $3, $4, $5, 0, 0, $6)
    `, c.ID, c.Name, c.Status, c.MessageTemplate, c.TotalContacts, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}

	for i, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		m.CampaignID = c.ID
		m.Status = model.MessageStatusPending
		// Microsecond offsets keep created_at strictly increasing so the
		// FIFO dispatch order matches the selection order.
		m.CreatedAt = c.CreatedAt.Add(time.Duration(i) * time.Microsecond)

		_, err = tx.ExecContext(ctx, `
            INSERT INTO campaign_messages (id, campaign_id, contact_id, message_content, status, error_message, created_at)
            VALUES ($1, $2, $3, $4, $5, '', $6)
        `, m.ID, m.CampaignID, m.ContactID, m.MessageContent, m.Status, m.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert campaign message: %w", err)
		}
	}

	return tx.Commit()
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	builder := psql.Select(campaignColumns).From("campaigns").
		OrderBy("created_at DESC").Limit(uint64(limit)).Offset(uint64(offset))
	countBuilder := psql.Select("COUNT(*)").From("campaigns")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
		countBuilder = countBuilder.Where(sq.Eq{"status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) ClaimRun(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `
        UPDATE campaigns
        SET status=$1, started_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING `+campaignColumns+`
    `, model.CampaignStatusRunning, id, model.CampaignStatusDraft)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either missing or already past draft; read it to tell which.
			current, gerr := r.GetByID(ctx, id)
			if gerr != nil {
				return nil, gerr
			}
			return nil, apperrors.NewInvalidState(id, string(current.Status), "started")
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) MarkCompleted(ctx context.Context, id string) (*model.Campaign, error) {
	row := r.DB.QueryRowContext(ctx, `
        UPDATE campaigns
        SET status=$1, completed_at=NOW()
        WHERE id=$2 AND status=$3
        RETURNING `+campaignColumns+`
    `, model.CampaignStatusCompleted, id, model.CampaignStatusRunning)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			current, gerr := r.GetByID(ctx, id)
			if gerr != nil {
				return nil, gerr
			}
			return nil, apperrors.NewInvalidState(id, string(current.Status), "completed")
		}
		return nil, err
	}
	return c, nil
}

// RequeueFailed is the operator-level reset for a completed campaign: every
// failed message goes back to pending and the campaign returns to draft so
// it can be started again. Returns the refreshed campaign and how many
// messages were requeued.
func (r *CampaignRepository) RequeueFailed(ctx context.Context, id string) (*model.Campaign, int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE campaign_messages
        SET status=$1, error_message='', sent_at=NULL
        WHERE campaign_id=$2 AND status=$3
    `, model.MessageStatusPending, id, model.MessageStatusFailed)
	if err != nil {
		return nil, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, 0, err
	}

	row := tx.QueryRowContext(ctx, `
        UPDATE campaigns
        SET status=$1, completed_at=NULL, failed_count=failed_count-$2
        WHERE id=$3 AND status=$4 AND failed_count>=$2
        RETURNING `+campaignColumns+`
    `, model.CampaignStatusDraft, n, id, model.CampaignStatusCompleted)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			current, gerr := r.GetByID(ctx, id)
			if gerr != nil {
				return nil, 0, gerr
			}
			return nil, 0, apperrors.NewInvalidState(id, string(current.Status), "requeued")
		}
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	return c, int(n), nil
}

func (r *CampaignRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n)
	return n, err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

// internal/repository/message_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"zapdispatch/internal/model"
)

type MessageRepositoryInterface interface {
	ListByCampaign(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error)
	ListPending(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error)
	ListStuckSending(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error)

	// The Mark* transitions are conditional on the current status so a
	// message can only ever move forward through the state machine.
	// MarkSent and MarkFailed flip the row and bump the campaign counter in
	// one transaction, which is what keeps sent_count/failed_count equal to
	// the actual row counts at all times.
	MarkSending(ctx context.Context, id string) (*model.CampaignMessage, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) (*model.CampaignMessage, *model.Campaign, error)
	MarkFailed(ctx context.Context, id, reason string) (*model.CampaignMessage, *model.Campaign, error)

	CountByStatus(ctx context.Context, status model.MessageStatus) (int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

const messageColumns = `m.id, m.campaign_id, m.contact_id, m.message_content, m.status, m.error_message, m.sent_at, m.created_at`

const messageSelect = `
    SELECT ` + messageColumns + `, COALESCE(c.name, ''), COALESCE(c.whatsapp, '')
    FROM campaign_messages m
    LEFT JOIN contacts c ON c.id = m.contact_id
`

func scanMessage(row interface{ Scan(...any) error }) (*model.CampaignMessage, error) {
	var m model.CampaignMessage
	err := row.Scan(&m.ID, &m.CampaignID, &m.ContactID, &m.MessageContent, &m.Status,
		&m.ErrorMessage, &m.SentAt, &m.CreatedAt, &m.ContactName, &m.ContactWhatsApp)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) listWhere(ctx context.Context, where string, args ...any) ([]*model.CampaignMessage, error) {
	rows, err := r.DB.QueryContext(ctx, messageSelect+where+` ORDER BY m.created_at, m.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*model.CampaignMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepository) ListByCampaign(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error) {
	return r.listWhere(ctx, `WHERE m.campaign_id=$1`, campaignID)
}

// ListPending returns the queue in enqueue order; the order is part of the
// dispatch contract.
func (r *MessageRepository) ListPending(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error) {
	return r.listWhere(ctx, `WHERE m.campaign_id=$1 AND m.status=$2`, campaignID, model.MessageStatusPending)
}

// ListStuckSending returns rows a crashed run left mid-flight.
func (r *MessageRepository) ListStuckSending(ctx context.Context, campaignID string) ([]*model.CampaignMessage, error) {
	return r.listWhere(ctx, `WHERE m.campaign_id=$1 AND m.status=$2`, campaignID, model.MessageStatusSending)
}

func (r *MessageRepository) MarkSending(ctx context.Context, id string) (*model.CampaignMessage, error) {
	row := r.DB.QueryRowContext(ctx, `
        UPDATE campaign_messages m
        SET status=$1
        WHERE m.id=$2 AND m.status=$3
        RETURNING m.id, m.campaign_id, m.contact_id, m.message_content, m.status, m.error_message, m.sent_at, m.created_at
    `, model.MessageStatusSending, id, model.MessageStatusPending)
	m, err := scanBareMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("message %s is not pending", id)
		}
		return nil, err
	}
	return m, nil
}

func (r *MessageRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) (*model.CampaignMessage, *model.Campaign, error) {
	return r.finishMessage(ctx, id, model.MessageStatusSent, "", &sentAt)
}

func (r *MessageRepository) MarkFailed(ctx context.Context, id, reason string) (*model.CampaignMessage, *model.Campaign, error) {
	return r.finishMessage(ctx, id, model.MessageStatusFailed, reason, nil)
}

func (r *MessageRepository) finishMessage(ctx context.Context, id string, status model.MessageStatus, reason string, sentAt *time.Time) (*model.CampaignMessage, *model.Campaign, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
        UPDATE campaign_messages m
        SET status=$1, error_message=$2, sent_at=$3
        WHERE m.id=$4 AND m.status=$5
        RETURNING m.id, m.campaign_id, m.contact_id, m.message_content, m.status, m.error_message, m.sent_at, m.created_at
    `, status, reason, sentAt, id, model.MessageStatusSending)
	m, err := scanBareMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("message %s is not in flight", id)
		}
		return nil, nil, err
	}

	counter := "sent_count"
	if status == model.MessageStatusFailed {
		counter = "failed_count"
	}
	// The guard keeps sent_count+failed_count from ever exceeding
	// total_contacts even if rows and counters somehow diverged.
	crow := tx.QueryRowContext(ctx, `
        UPDATE campaigns
        SET `+counter+` = `+counter+` + 1
        WHERE id=$1 AND sent_count + failed_count < total_contacts
        RETURNING `+campaignColumns+`
    `, m.CampaignID)
	c, err := scanCampaign(crow)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("campaign %s counters are full, refusing to record %s", m.CampaignID, status)
		}
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return m, c, nil
}

func scanBareMessage(row interface{ Scan(...any) error }) (*model.CampaignMessage, error) {
	var m model.CampaignMessage
	err := row.Scan(&m.ID, &m.CampaignID, &m.ContactID, &m.MessageContent, &m.Status,
		&m.ErrorMessage, &m.SentAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) CountByStatus(ctx context.Context, status model.MessageStatus) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaign_messages WHERE status=$1`, status).Scan(&n)
	return n, err
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)

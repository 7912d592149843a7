// internal/model/campaign_message.go
package model

import "time"

type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSending MessageStatus = "sending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// CampaignMessage is one per-contact unit of work within a campaign.
// MessageContent is snapshotted (macros already substituted) when the
// campaign is created and never rewritten afterwards. The dispatcher only
// moves Status forward: pending -> sending -> sent|failed.
type CampaignMessage struct {
	ID             string        `db:"id" json:"id"`
	CampaignID     string        `db:"campaign_id" json:"campaign_id"`
	ContactID      string        `db:"contact_id" json:"contact_id"`
	MessageContent string        `db:"message_content" json:"message_content"`
	Status         MessageStatus `db:"status" json:"status"`
	ErrorMessage   string        `db:"error_message" json:"error_message,omitempty"`
	SentAt         *time.Time    `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`

	// Joined from contacts for dispatching and the detail view.
	ContactName     string `db:"contact_name" json:"contact_name,omitempty"`
	ContactWhatsApp string `db:"contact_whatsapp" json:"contact_whatsapp,omitempty"`
}

// Terminal reports whether the message reached a state the dispatcher
// never revisits within a run.
func (m *CampaignMessage) Terminal() bool {
	return m.Status == MessageStatusSent || m.Status == MessageStatusFailed
}

// internal/model/campaign.go
package model

import "time"

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign is one batch dispatch job targeting a fixed set of contacts.
// total_contacts is fixed at creation; sent_count and failed_count only
// move up while a run is active and always satisfy
// sent_count + failed_count <= total_contacts.
type Campaign struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Status          CampaignStatus `db:"status" json:"status"`
	MessageTemplate string         `db:"message_template" json:"message_template"`
	TotalContacts   int            `db:"total_contacts" json:"total_contacts"`
	SentCount       int            `db:"sent_count" json:"sent_count"`
	FailedCount     int            `db:"failed_count" json:"failed_count"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	StartedAt       *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// Terminal reports whether the campaign reached a state no run will leave.
func (c *Campaign) Terminal() bool {
	return c.Status == CampaignStatusCompleted
}

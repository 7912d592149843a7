// internal/progress/progress.go
package progress

import (
	"context"
	"time"

	"zapdispatch/internal/model"
)

// EventKind tells observers which record changed.
type EventKind string

const (
	EventCampaign EventKind = "campaign"
	EventMessage  EventKind = "message"
)

// Event is one row-level change, keyed by campaign id. Observers get the
// full current record so they never read back through the dispatcher.
type Event struct {
	CampaignID string                 `json:"campaign_id"`
	Kind       EventKind              `json:"kind"`
	Campaign   *model.Campaign        `json:"campaign,omitempty"`
	Message    *model.CampaignMessage `json:"message,omitempty"`
	At         time.Time              `json:"at"`
}

// Publisher is the write side of the progress channel. Implementations must
// never block the caller: the dispatch loop fires these after every record
// write and moves on.
type Publisher interface {
	CampaignChanged(ctx context.Context, c *model.Campaign)
	MessageChanged(ctx context.Context, m *model.CampaignMessage)
}

// Subscriber is the observer side. The returned cancel func releases the
// subscription and closes the channel.
type Subscriber interface {
	Subscribe(ctx context.Context, campaignID string) (<-chan Event, func())
}

// NopPublisher discards events. Used where progress reporting is not wired,
// e.g. the seeder.
type NopPublisher struct{}

func (NopPublisher) CampaignChanged(context.Context, *model.Campaign)       {}
func (NopPublisher) MessageChanged(context.Context, *model.CampaignMessage) {}

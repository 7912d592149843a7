// internal/progress/memory.go
package progress

import (
	"context"
	"sync"
	"time"

	"zapdispatch/internal/model"
)

// MemoryChannel is an in-process progress channel for tests and
// single-binary runs without Redis. Slow subscribers lose events rather
// than back-pressuring the publisher.
type MemoryChannel struct {
	mu   sync.Mutex
	subs map[string][]chan Event
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{subs: make(map[string][]chan Event)}
}

func (m *MemoryChannel) CampaignChanged(_ context.Context, c *model.Campaign) {
	m.fanOut(Event{CampaignID: c.ID, Kind: EventCampaign, Campaign: c, At: time.Now().UTC()})
}

func (m *MemoryChannel) MessageChanged(_ context.Context, msg *model.CampaignMessage) {
	m.fanOut(Event{CampaignID: msg.CampaignID, Kind: EventMessage, Message: msg, At: time.Now().UTC()})
}

func (m *MemoryChannel) fanOut(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[ev.CampaignID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (m *MemoryChannel) Subscribe(_ context.Context, campaignID string) (<-chan Event, func()) {
	ch := make(chan Event, 64)

	m.mu.Lock()
	m.subs[campaignID] = append(m.subs[campaignID], ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[campaignID]
		for i, c := range subs {
			if c == ch {
				m.subs[campaignID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

var (
	_ Publisher  = (*MemoryChannel)(nil)
	_ Subscriber = (*MemoryChannel)(nil)
)

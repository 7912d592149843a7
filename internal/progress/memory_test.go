// internal/progress/memory_test.go
package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zapdispatch/internal/model"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryChannelFansOutByCampaign(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	a1, cancelA1 := ch.Subscribe(ctx, "camp-a")
	defer cancelA1()
	a2, cancelA2 := ch.Subscribe(ctx, "camp-a")
	defer cancelA2()
	b, cancelB := ch.Subscribe(ctx, "camp-b")
	defer cancelB()

	ch.CampaignChanged(ctx, &model.Campaign{ID: "camp-a", Status: model.CampaignStatusRunning})

	for _, sub := range []<-chan Event{a1, a2} {
		ev := recv(t, sub)
		require.Equal(t, "camp-a", ev.CampaignID)
		require.Equal(t, EventCampaign, ev.Kind)
		require.Equal(t, model.CampaignStatusRunning, ev.Campaign.Status)
		require.False(t, ev.At.IsZero())
	}

	select {
	case ev := <-b:
		t.Fatalf("camp-b subscriber received foreign event %+v", ev)
	default:
	}
}

func TestMemoryChannelMessageEvents(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	sub, cancel := ch.Subscribe(ctx, "camp-a")
	defer cancel()

	ch.MessageChanged(ctx, &model.CampaignMessage{
		ID:         "m1",
		CampaignID: "camp-a",
		Status:     model.MessageStatusSent,
	})

	ev := recv(t, sub)
	require.Equal(t, EventMessage, ev.Kind)
	require.Equal(t, "m1", ev.Message.ID)
	require.Nil(t, ev.Campaign)
}

func TestMemoryChannelCancelClosesAndUnsubscribes(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	sub, cancel := ch.Subscribe(ctx, "camp-a")
	cancel()

	_, open := <-sub
	require.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	ch.CampaignChanged(ctx, &model.Campaign{ID: "camp-a"})
}

func TestMemoryChannelDropsWhenSubscriberIsFull(t *testing.T) {
	ch := NewMemoryChannel()
	ctx := context.Background()

	sub, cancel := ch.Subscribe(ctx, "camp-a")
	defer cancel()

	// One more than the subscriber buffer; the publisher must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 65; i++ {
			ch.CampaignChanged(ctx, &model.Campaign{ID: "camp-a"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	require.Len(t, sub, 64)
}

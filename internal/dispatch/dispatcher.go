// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/gateway"
	"zapdispatch/internal/metrics"
	"zapdispatch/internal/model"
	"zapdispatch/internal/progress"
	"zapdispatch/internal/repository"
)

// interruptedError is recorded on messages a previous run left in
// "sending". The gateway call may or may not have gone out; re-sending
// risks a duplicate message to a real person, so recovery fails the row
// and leaves the retry decision to the operator.
const interruptedError = "interrupted before delivery confirmation"

// GatewaySender is the slice of the gateway client the dispatcher needs.
type GatewaySender interface {
	VerifySettings() error
	SendText(ctx context.Context, number, text string) (*gateway.SendResult, error)
}

// Dispatcher runs one campaign to completion: strictly sequential sends in
// enqueue order, a randomized pacing delay between them, per-message fault
// isolation, and progress published after every record write.
type Dispatcher struct {
	Campaigns repository.CampaignRepositoryInterface
	Messages  repository.MessageRepositoryInterface
	Gateway   GatewaySender
	Progress  progress.Publisher

	PacingMin time.Duration
	PacingMax time.Duration

	Logger *logrus.Logger
}

func New(campaigns repository.CampaignRepositoryInterface, messages repository.MessageRepositoryInterface,
	gw GatewaySender, pub progress.Publisher, pacingMin, pacingMax time.Duration, logger *logrus.Logger) *Dispatcher {
	if pacingMin <= 0 {
		pacingMin = 2 * time.Second
	}
	if pacingMax < pacingMin {
		pacingMax = pacingMin
	}
	if pub == nil {
		pub = progress.NopPublisher{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		Campaigns: campaigns,
		Messages:  messages,
		Gateway:   gw,
		Progress:  pub,
		PacingMin: pacingMin,
		PacingMax: pacingMax,
		Logger:    logger,
	}
}

// Run starts a draft campaign and drains its queue. The gateway
// configuration is verified before anything is touched, and the
// draft->running claim is conditional, so a second concurrent start fails
// with InvalidState and the loser mutates nothing.
func (d *Dispatcher) Run(ctx context.Context, campaignID string) error {
	if err := d.Gateway.VerifySettings(); err != nil {
		return err
	}

	campaign, err := d.Campaigns.ClaimRun(ctx, campaignID)
	if err != nil {
		return err
	}
	d.Progress.CampaignChanged(ctx, campaign)

	return d.drain(ctx, campaign)
}

// Resume picks up a campaign a crashed run left in "running": messages
// stuck in "sending" are failed with a recovery error, the remaining
// pending queue is drained as usual, and already-sent messages are never
// touched again. Mutual exclusion for Resume rests on the single run-job
// consumer.
func (d *Dispatcher) Resume(ctx context.Context, campaignID string) error {
	if err := d.Gateway.VerifySettings(); err != nil {
		return err
	}

	campaign, err := d.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignStatusRunning {
		return apperrors.NewInvalidState(campaignID, string(campaign.Status), "resumed")
	}

	return d.drain(ctx, campaign)
}

func (d *Dispatcher) drain(ctx context.Context, campaign *model.Campaign) error {
	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()

	log := d.Logger.WithField("campaign_id", campaign.ID)

	stuck, err := d.Messages.ListStuckSending(ctx, campaign.ID)
	if err != nil {
		return err
	}
	for _, m := range stuck {
		failed, updated, err := d.Messages.MarkFailed(ctx, m.ID, interruptedError)
		if err != nil {
			return err
		}
		d.publishMessage(ctx, failed, m)
		d.Progress.CampaignChanged(ctx, updated)
		metrics.IncMessageFailed()
		log.WithField("message_id", m.ID).Warn("recovered in-flight message as failed")
	}

	pending, err := d.Messages.ListPending(ctx, campaign.ID)
	if err != nil {
		return err
	}
	log.WithField("pending", len(pending)).Info("dispatch loop started")

	for i, m := range pending {
		// Cancellation is honored between messages only; an in-flight send
		// always completes and gets recorded first.
		if err := ctx.Err(); err != nil {
			log.WithField("remaining", len(pending)-i).Info("dispatch loop cancelled")
			return err
		}

		if err := d.dispatchOne(ctx, m, log); err != nil {
			return err
		}

		if i < len(pending)-1 {
			if err := d.pace(ctx); err != nil {
				log.WithField("remaining", len(pending)-i-1).Info("dispatch loop cancelled")
				return err
			}
		}
	}

	completed, err := d.Campaigns.MarkCompleted(ctx, campaign.ID)
	if err != nil {
		return err
	}
	d.Progress.CampaignChanged(ctx, completed)
	metrics.IncRunsCompleted()
	log.WithFields(logrus.Fields{
		"sent":   completed.SentCount,
		"failed": completed.FailedCount,
		"total":  completed.TotalContacts,
	}).Info("campaign completed")
	return nil
}

// dispatchOne moves a single message through sending -> sent|failed. Only
// storage failures are returned; a gateway or recipient failure is recorded
// on the message and the run goes on.
func (d *Dispatcher) dispatchOne(ctx context.Context, m *model.CampaignMessage, log *logrus.Entry) error {
	// Persisted before the gateway call: a crash mid-send must leave a
	// durable "in flight" record, never a silent revert to pending.
	sending, err := d.Messages.MarkSending(ctx, m.ID)
	if err != nil {
		return err
	}
	d.publishMessage(ctx, sending, m)

	var sendErr error
	number := gateway.NormalizeRecipient(m.ContactWhatsApp)
	if number == "" {
		sendErr = apperrors.NewMalformedRecipient(m.ContactWhatsApp)
	} else {
		start := time.Now()
		// The send carries its own timeout via the gateway client and is
		// shielded from run cancellation; only the pacing/loop is
		// cancellable.
		_, sendErr = d.Gateway.SendText(context.WithoutCancel(ctx), number, m.MessageContent)
		metrics.ObserveSendDuration(time.Since(start))
	}

	if sendErr != nil {
		failed, campaign, err := d.Messages.MarkFailed(ctx, m.ID, sendErr.Error())
		if err != nil {
			return err
		}
		d.publishMessage(ctx, failed, m)
		d.Progress.CampaignChanged(ctx, campaign)
		metrics.IncMessageFailed()
		log.WithFields(logrus.Fields{"message_id": m.ID, "error": sendErr.Error()}).Warn("message failed")
		return nil
	}

	sent, campaign, err := d.Messages.MarkSent(ctx, m.ID, time.Now().UTC())
	if err != nil {
		return err
	}
	d.publishMessage(ctx, sent, m)
	d.Progress.CampaignChanged(ctx, campaign)
	metrics.IncMessageSent()
	log.WithField("message_id", m.ID).Info("message sent")
	return nil
}

// publishMessage carries the joined contact fields from the loaded queue
// row over to the updated row, so observers can render names without
// another read.
func (d *Dispatcher) publishMessage(ctx context.Context, updated, loaded *model.CampaignMessage) {
	updated.ContactName = loaded.ContactName
	updated.ContactWhatsApp = loaded.ContactWhatsApp
	d.Progress.MessageChanged(ctx, updated)
}

// pace waits a uniform random delay in [PacingMin, PacingMax]. The jitter
// avoids a detectable fixed cadence toward the provider.
func (d *Dispatcher) pace(ctx context.Context) error {
	delay := d.PacingMin
	if spread := d.PacingMax - d.PacingMin; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	metrics.ObservePacingDelay(delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

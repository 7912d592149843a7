// internal/service/quick_send_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/dispatch"
	"zapdispatch/internal/gateway"
	"zapdispatch/internal/repository"
)

// QuickSendService fires one-off messages immediately, outside any
// campaign. No rows are written and no pacing applies; this is for a
// handful of recipients at a time.
type QuickSendService struct {
	ContactRepo repository.ContactRepositoryInterface
	Gateway     dispatch.GatewaySender
	Logger      *logrus.Logger
}

type QuickSendDelivery struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name,omitempty"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

type QuickSendResult struct {
	Sent       int                 `json:"sent"`
	Failed     int                 `json:"failed"`
	Deliveries []QuickSendDelivery `json:"deliveries"`
}

// Send delivers the message to each selected contact and optionally to one
// manually typed number or group id. Per-recipient failures are isolated
// into the result, mirroring how the dispatcher treats campaign messages.
func (s *QuickSendService) Send(ctx context.Context, contactIDs []string, manualNumber, message string) (*QuickSendResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	if len(contactIDs) == 0 && strings.TrimSpace(manualNumber) == "" {
		return nil, fmt.Errorf("select at least one contact or type a number")
	}
	if err := s.Gateway.VerifySettings(); err != nil {
		return nil, err
	}

	result := &QuickSendResult{}

	contacts, err := s.ContactRepo.ListByIDs(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	for _, contact := range contacts {
		body := RenderForContact(message, contact.Name)
		result.record(contact.WhatsApp, contact.Name, s.deliver(ctx, contact.WhatsApp, body))
	}

	if manual := strings.TrimSpace(manualNumber); manual != "" {
		body := RenderForContact(message, "")
		result.record(manual, "", s.deliver(ctx, manual, body))
	}

	s.Logger.WithFields(logrus.Fields{"sent": result.Sent, "failed": result.Failed}).Info("quick send finished")
	return result, nil
}

func (s *QuickSendService) deliver(ctx context.Context, rawNumber, body string) error {
	number := gateway.NormalizeRecipient(rawNumber)
	if number == "" {
		return apperrors.NewMalformedRecipient(rawNumber)
	}
	_, err := s.Gateway.SendText(ctx, number, body)
	return err
}

func (r *QuickSendResult) record(recipient, name string, err error) {
	d := QuickSendDelivery{Recipient: recipient, Name: name, Sent: err == nil}
	if err != nil {
		d.Error = err.Error()
		r.Failed++
	} else {
		r.Sent++
	}
	r.Deliveries = append(r.Deliveries, d)
}

// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/model"
	"zapdispatch/internal/queue"
	"zapdispatch/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	Queue        queue.RunPublisher
	Logger       *logrus.Logger
}

type CampaignDetails struct {
	Campaign *model.Campaign          `json:"campaign"`
	Messages []*model.CampaignMessage `json:"messages"`
}

// CreateCampaign snapshots one message per selected contact with the
// {{nome}} macro already substituted, all in one transaction. The message
// bodies never change after this point, even if the contact is renamed.
func (s *CampaignService) CreateCampaign(ctx context.Context, name, template string, contactIDs []string) (*model.Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("campaign name cannot be empty")
	}
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("message template cannot be empty")
	}
	if len(contactIDs) == 0 {
		return nil, fmt.Errorf("select at least one contact")
	}

	contacts, err := s.ContactRepo.ListByIDs(ctx, contactIDs)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, fmt.Errorf("none of the selected contacts exist")
	}

	msgs := make([]*model.CampaignMessage, 0, len(contacts))
	for _, contact := range contacts {
		msgs = append(msgs, &model.CampaignMessage{
			ContactID:      contact.ID,
			MessageContent: RenderForContact(template, contact.Name),
		})
	}

	campaign := &model.Campaign{
		Name:            name,
		MessageTemplate: template,
		Status:          model.CampaignStatusDraft,
	}
	if err := s.CampaignRepo.Create(ctx, campaign, msgs); err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"contacts":    campaign.TotalContacts,
	}).Info("campaign created")
	return campaign, nil
}

// StartCampaign hands the run over to the worker. The draft check here is a
// fast pre-check for the API caller; the authoritative claim happens inside
// the dispatcher.
func (s *CampaignService) StartCampaign(ctx context.Context, id string) error {
	campaign, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignStatusDraft {
		return apperrors.NewInvalidState(id, string(campaign.Status), "started")
	}
	return s.Queue.PublishRun(ctx, queue.RunJob{CampaignID: id})
}

// ListCampaigns fetches campaigns with pagination.
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]*model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.List(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetails(ctx context.Context, id string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.MessageRepo.ListByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CampaignDetails{Campaign: campaign, Messages: messages}, nil
}

// RequeueFailed flips every failed message of a completed campaign back to
// pending and returns the campaign to draft so the operator can start it
// again. This is the only retry mechanism; the dispatcher itself never
// retries.
func (s *CampaignService) RequeueFailed(ctx context.Context, id string) (*model.Campaign, int, error) {
	campaign, n, err := s.CampaignRepo.RequeueFailed(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	s.Logger.WithFields(logrus.Fields{"campaign_id": id, "requeued": n}).Info("failed messages requeued")
	return campaign, n, nil
}

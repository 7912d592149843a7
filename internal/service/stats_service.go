// internal/service/stats_service.go
package service

import (
	"context"

	"zapdispatch/internal/model"
	"zapdispatch/internal/repository"
)

type StatsService struct {
	ContactRepo  repository.ContactRepositoryInterface
	CategoryRepo repository.CategoryRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	MessageRepo  repository.MessageRepositoryInterface
}

type DashboardStats struct {
	Contacts     int `json:"contacts"`
	Categories   int `json:"categories"`
	Campaigns    int `json:"campaigns"`
	SentMessages int `json:"sent_messages"`
}

func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.Contacts, err = s.ContactRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Categories, err = s.CategoryRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Campaigns, err = s.CampaignRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.SentMessages, err = s.MessageRepo.CountByStatus(ctx, model.MessageStatusSent); err != nil {
		return nil, err
	}
	return stats, nil
}

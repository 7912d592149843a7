// internal/service/campaign_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/model"
	"zapdispatch/internal/queue"
)

// stubCampaignRepo implements repository.CampaignRepositoryInterface with
// function fields so each test overrides only what it touches.
type stubCampaignRepo struct {
	createFn  func(ctx context.Context, c *model.Campaign, msgs []*model.CampaignMessage) error
	getByIDFn func(ctx context.Context, id string) (*model.Campaign, error)
	listFn    func(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
}

func (s *stubCampaignRepo) Create(ctx context.Context, c *model.Campaign, msgs []*model.CampaignMessage) error {
	return s.createFn(ctx, c, msgs)
}

func (s *stubCampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubCampaignRepo) List(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	return s.listFn(ctx, offset, limit, status)
}

func (s *stubCampaignRepo) ClaimRun(context.Context, string) (*model.Campaign, error) {
	panic("not expected")
}

func (s *stubCampaignRepo) MarkCompleted(context.Context, string) (*model.Campaign, error) {
	panic("not expected")
}

func (s *stubCampaignRepo) RequeueFailed(context.Context, string) (*model.Campaign, int, error) {
	panic("not expected")
}

func (s *stubCampaignRepo) Count(context.Context) (int, error) { return 0, nil }

// stubContactRepo implements repository.ContactRepositoryInterface.
type stubContactRepo struct {
	listByIDsFn  func(ctx context.Context, ids []string) ([]*model.Contact, error)
	listFn       func(ctx context.Context, search, categoryID string) ([]*model.Contact, error)
	bulkCreateFn func(ctx context.Context, contacts []*model.Contact) (int, error)
}

func (s *stubContactRepo) Create(context.Context, *model.Contact) error { panic("not expected") }
func (s *stubContactRepo) Update(context.Context, *model.Contact) error { panic("not expected") }
func (s *stubContactRepo) Delete(context.Context, string) error         { panic("not expected") }
func (s *stubContactRepo) Count(context.Context) (int, error)           { return 0, nil }
func (s *stubContactRepo) SetCategories(context.Context, string, []string) error {
	panic("not expected")
}

func (s *stubContactRepo) GetByID(context.Context, string) (*model.Contact, error) {
	panic("not expected")
}

func (s *stubContactRepo) List(ctx context.Context, search, categoryID string) ([]*model.Contact, error) {
	return s.listFn(ctx, search, categoryID)
}

func (s *stubContactRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.Contact, error) {
	return s.listByIDsFn(ctx, ids)
}

func (s *stubContactRepo) BulkCreate(ctx context.Context, contacts []*model.Contact) (int, error) {
	return s.bulkCreateFn(ctx, contacts)
}

// stubRunPublisher records published run jobs.
type stubRunPublisher struct {
	jobs []queue.RunJob
	err  error
}

func (s *stubRunPublisher) PublishRun(_ context.Context, job queue.RunJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestCreateCampaignSnapshotsRenderedMessages(t *testing.T) {
	contacts := []*model.Contact{
		{ID: "c1", Name: "Maria", WhatsApp: "5511999999991"},
		{ID: "c2", Name: "João", WhatsApp: "5511999999992"},
	}

	var created *model.Campaign
	var createdMsgs []*model.CampaignMessage
	svc := &CampaignService{
		CampaignRepo: &stubCampaignRepo{
			createFn: func(_ context.Context, c *model.Campaign, msgs []*model.CampaignMessage) error {
				c.ID = "camp-1"
				c.TotalContacts = len(msgs)
				c.CreatedAt = time.Now().UTC()
				created, createdMsgs = c, msgs
				return nil
			},
		},
		ContactRepo: &stubContactRepo{
			listByIDsFn: func(_ context.Context, ids []string) ([]*model.Contact, error) {
				require.Equal(t, []string{"c1", "c2"}, ids)
				return contacts, nil
			},
		},
		Logger: testLogger(),
	}

	campaign, err := svc.CreateCampaign(context.Background(), "Promo", "Oi {{nome}}, tudo bem?", []string{"c1", "c2"})
	require.NoError(t, err)
	require.Equal(t, created, campaign)
	require.Equal(t, model.CampaignStatusDraft, campaign.Status)
	require.Equal(t, "Oi {{nome}}, tudo bem?", campaign.MessageTemplate)

	require.Len(t, createdMsgs, 2)
	require.Equal(t, "Oi Maria, tudo bem?", createdMsgs[0].MessageContent)
	require.Equal(t, "Oi João, tudo bem?", createdMsgs[1].MessageContent)
	require.Equal(t, "c1", createdMsgs[0].ContactID)
}

func TestCreateCampaignValidatesInput(t *testing.T) {
	svc := &CampaignService{Logger: testLogger()}

	_, err := svc.CreateCampaign(context.Background(), "  ", "Oi", []string{"c1"})
	require.ErrorContains(t, err, "name")

	_, err = svc.CreateCampaign(context.Background(), "Promo", "", []string{"c1"})
	require.ErrorContains(t, err, "template")

	_, err = svc.CreateCampaign(context.Background(), "Promo", "Oi", nil)
	require.ErrorContains(t, err, "contact")
}

func TestCreateCampaignRejectsUnknownContacts(t *testing.T) {
	svc := &CampaignService{
		ContactRepo: &stubContactRepo{
			listByIDsFn: func(context.Context, []string) ([]*model.Contact, error) {
				return nil, nil
			},
		},
		Logger: testLogger(),
	}

	_, err := svc.CreateCampaign(context.Background(), "Promo", "Oi", []string{"ghost"})
	require.ErrorContains(t, err, "selected contacts")
}

func TestStartCampaignQueuesDraft(t *testing.T) {
	pub := &stubRunPublisher{}
	svc := &CampaignService{
		CampaignRepo: &stubCampaignRepo{
			getByIDFn: func(_ context.Context, id string) (*model.Campaign, error) {
				return &model.Campaign{ID: id, Status: model.CampaignStatusDraft}, nil
			},
		},
		Queue:  pub,
		Logger: testLogger(),
	}

	require.NoError(t, svc.StartCampaign(context.Background(), "camp-1"))
	require.Equal(t, []queue.RunJob{{CampaignID: "camp-1"}}, pub.jobs)
}

func TestStartCampaignRejectsNonDraft(t *testing.T) {
	pub := &stubRunPublisher{}
	svc := &CampaignService{
		CampaignRepo: &stubCampaignRepo{
			getByIDFn: func(_ context.Context, id string) (*model.Campaign, error) {
				return &model.Campaign{ID: id, Status: model.CampaignStatusRunning}, nil
			},
		},
		Queue:  pub,
		Logger: testLogger(),
	}

	err := svc.StartCampaign(context.Background(), "camp-1")
	var invalid *apperrors.ErrInvalidState
	require.ErrorAs(t, err, &invalid)
	require.Empty(t, pub.jobs)
}

func TestListCampaignsPagination(t *testing.T) {
	var gotOffset, gotLimit int
	svc := &CampaignService{
		CampaignRepo: &stubCampaignRepo{
			listFn: func(_ context.Context, offset, limit int, _ string) ([]*model.Campaign, int, error) {
				gotOffset, gotLimit = offset, limit
				return []*model.Campaign{{ID: "camp-1"}}, 45, nil
			},
		},
		Logger: testLogger(),
	}

	campaigns, pagination, err := svc.ListCampaigns(context.Background(), 3, 20, "")
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	require.Equal(t, 40, gotOffset)
	require.Equal(t, 20, gotLimit)
	require.Equal(t, map[string]int{
		"page":        3,
		"page_size":   20,
		"total_count": 45,
		"total_pages": 3,
	}, pagination)
}

func TestListCampaignsClampsPageSize(t *testing.T) {
	var gotLimit int
	svc := &CampaignService{
		CampaignRepo: &stubCampaignRepo{
			listFn: func(_ context.Context, _, limit int, _ string) ([]*model.Campaign, int, error) {
				gotLimit = limit
				return nil, 0, nil
			},
		},
		Logger: testLogger(),
	}

	_, _, err := svc.ListCampaigns(context.Background(), 0, 500, "")
	require.NoError(t, err)
	require.Equal(t, 100, gotLimit)
}

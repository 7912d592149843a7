// internal/service/quick_send_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"zapdispatch/internal/apperrors"
	"zapdispatch/internal/gateway"
	"zapdispatch/internal/model"
)

type stubGateway struct {
	mu        sync.Mutex
	calls     []string
	bodies    []string
	fail      map[string]error
	configErr error
}

func (g *stubGateway) VerifySettings() error { return g.configErr }

func (g *stubGateway) SendText(_ context.Context, number, text string) (*gateway.SendResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, number)
	g.bodies = append(g.bodies, text)
	if err := g.fail[number]; err != nil {
		return nil, err
	}
	return &gateway.SendResult{StatusCode: 200}, nil
}

func TestQuickSendRendersAndIsolatesFailures(t *testing.T) {
	gw := &stubGateway{fail: map[string]error{
		"5511999999992@c.us": &gateway.GatewayError{StatusCode: 400, Message: "number not on whatsapp"},
	}}
	svc := &QuickSendService{
		ContactRepo: &stubContactRepo{
			listByIDsFn: func(context.Context, []string) ([]*model.Contact, error) {
				return []*model.Contact{
					{ID: "c1", Name: "Maria", WhatsApp: "5511999999991"},
					{ID: "c2", Name: "João", WhatsApp: "5511999999992"},
				}, nil
			},
		},
		Gateway: gw,
		Logger:  testLogger(),
	}

	result, err := svc.Send(context.Background(), []string{"c1", "c2"}, "", "Oi {{nome}}!")
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Equal(t, 1, result.Failed)

	require.Equal(t, []string{"Oi Maria!", "Oi João!"}, gw.bodies)
	require.Len(t, result.Deliveries, 2)
	require.True(t, result.Deliveries[0].Sent)
	require.False(t, result.Deliveries[1].Sent)
	require.Contains(t, result.Deliveries[1].Error, "number not on whatsapp")
}

func TestQuickSendManualNumberNormalized(t *testing.T) {
	gw := &stubGateway{}
	svc := &QuickSendService{
		ContactRepo: &stubContactRepo{
			listByIDsFn: func(context.Context, []string) ([]*model.Contact, error) {
				return nil, nil
			},
		},
		Gateway: gw,
		Logger:  testLogger(),
	}

	result, err := svc.Send(context.Background(), nil, "+55 11 99999-9991", "Olá")
	require.NoError(t, err)
	require.Equal(t, 1, result.Sent)
	require.Equal(t, []string{"5511999999991@c.us"}, gw.calls)
	// The manual recipient has no contact name; the macro renders empty.
	require.Equal(t, []string{"Olá"}, gw.bodies)
}

func TestQuickSendRejectsEmptyInput(t *testing.T) {
	svc := &QuickSendService{Gateway: &stubGateway{}, Logger: testLogger()}

	_, err := svc.Send(context.Background(), nil, "", "Oi")
	require.ErrorContains(t, err, "at least one contact")

	_, err = svc.Send(context.Background(), []string{"c1"}, "", "  ")
	require.ErrorContains(t, err, "message")
}

func TestQuickSendStopsOnMissingConfiguration(t *testing.T) {
	gw := &stubGateway{configErr: apperrors.NewConfigurationMissing("EVOLUTION_API_KEY")}
	svc := &QuickSendService{Gateway: gw, Logger: testLogger()}

	_, err := svc.Send(context.Background(), []string{"c1"}, "", "Oi")
	var missing *apperrors.ErrConfigurationMissing
	require.ErrorAs(t, err, &missing)
	require.Empty(t, gw.calls)
}

// internal/service/contact_service_test.go
package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"zapdispatch/internal/model"
)

func TestImportCSVSkipsHeaderAndEmptyNumbers(t *testing.T) {
	csv := strings.Join([]string{
		"nome,whatsapp",
		"Maria,5511999999991",
		"Sem Numero,",
		"João,+55 11 99999-9992",
	}, "\n")

	var got []*model.Contact
	svc := &ContactService{
		ContactRepo: &stubContactRepo{
			bulkCreateFn: func(_ context.Context, contacts []*model.Contact) (int, error) {
				got = contacts
				return len(contacts), nil
			},
		},
		Logger: testLogger(),
	}

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 1, result.Skipped)

	require.Len(t, got, 2)
	require.Equal(t, "Maria", got[0].Name)
	require.Equal(t, "5511999999991", got[0].WhatsApp)
	require.Equal(t, "+55 11 99999-9992", got[1].WhatsApp)
}

func TestImportCSVWithoutHeader(t *testing.T) {
	svc := &ContactService{
		ContactRepo: &stubContactRepo{
			bulkCreateFn: func(_ context.Context, contacts []*model.Contact) (int, error) {
				return len(contacts), nil
			},
		},
		Logger: testLogger(),
	}

	result, err := svc.ImportCSV(context.Background(), strings.NewReader("Maria,5511999999991\n"))
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 0, result.Skipped)
}

func TestImportCSVCountsDuplicatesAsSkipped(t *testing.T) {
	svc := &ContactService{
		ContactRepo: &stubContactRepo{
			// Simulates ON CONFLICT DO NOTHING dropping one duplicate row.
			bulkCreateFn: func(_ context.Context, contacts []*model.Contact) (int, error) {
				return len(contacts) - 1, nil
			},
		},
		Logger: testLogger(),
	}

	csv := "nome,whatsapp\nMaria,5511999999991\nMaria,5511999999991\n"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 1, result.Skipped)
}

func TestImportCSVRejectsEmptyFile(t *testing.T) {
	svc := &ContactService{Logger: testLogger()}

	_, err := svc.ImportCSV(context.Background(), strings.NewReader(""))
	require.ErrorContains(t, err, "empty")
}

func TestExportCSVWritesTemplateShape(t *testing.T) {
	svc := &ContactService{
		ContactRepo: &stubContactRepo{
			listFn: func(context.Context, string, string) ([]*model.Contact, error) {
				return []*model.Contact{
					{Name: "Maria", WhatsApp: "5511999999991"},
					{Name: "João", WhatsApp: "5511999999992"},
				}, nil
			},
		},
		Logger: testLogger(),
	}

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))
	require.Equal(t, "nome,whatsapp\nMaria,5511999999991\nJoão,5511999999992\n", buf.String())
}

// internal/service/contact_service.go
package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"zapdispatch/internal/model"
	"zapdispatch/internal/repository"
)

// ContactService wraps contact CRUD with the CSV import/export the contacts
// screen offers. The CSV shape matches the downloadable template:
// a "nome,whatsapp" header followed by one contact per row.
type ContactService struct {
	ContactRepo repository.ContactRepositoryInterface
	Logger      *logrus.Logger
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

func (s *ContactService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	start := 0
	if isHeaderRow(records[0]) {
		start = 1
	}

	result := &ImportResult{}
	contacts := []*model.Contact{}
	for _, row := range records[start:] {
		name, number := "", ""
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			number = strings.TrimSpace(row[1])
		}
		// Rows without a number cannot ever be dispatched to; drop them
		// here instead of importing dead contacts.
		if number == "" {
			result.Skipped++
			continue
		}
		contacts = append(contacts, &model.Contact{Name: name, WhatsApp: number})
	}

	inserted, err := s.ContactRepo.BulkCreate(ctx, contacts)
	if err != nil {
		return nil, err
	}
	result.Imported = inserted
	result.Skipped += len(contacts) - inserted

	s.Logger.WithFields(logrus.Fields{"imported": result.Imported, "skipped": result.Skipped}).Info("contacts imported")
	return result, nil
}

func (s *ContactService) ExportCSV(ctx context.Context, w io.Writer) error {
	contacts, err := s.ContactRepo.List(ctx, "", "")
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"nome", "whatsapp"}); err != nil {
		return err
	}
	for _, c := range contacts {
		if err := writer.Write([]string{c.Name, c.WhatsApp}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "nome" || first == "name"
}

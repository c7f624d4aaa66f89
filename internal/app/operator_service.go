package app

import (
	"context"
	"fmt"
	"strings"

	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
)

// OperatorService backs the operator commands of the bot.
type OperatorService struct {
	journal         registration.Journal // optional
	catalog         *CatalogService
	adminTelegramID int64
}

func NewOperatorService(journal registration.Journal, catalog *CatalogService, adminID int64) *OperatorService {
	return &OperatorService{
		journal:         journal,
		catalog:         catalog,
		adminTelegramID: adminID,
	}
}

func (s *OperatorService) authorize(performingAdminID int64) error {
	if s.adminTelegramID == 0 || performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// IsOperator reports whether the user may run operator commands.
func (s *OperatorService) IsOperator(userID int64) bool {
	return s.authorize(userID) == nil
}

// ListJournal returns the recorded outcomes for a serial, newest first.
func (s *OperatorService) ListJournal(ctx context.Context, performingAdminID int64, serialNo string) ([]*registration.JournalEntry, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if s.journal == nil {
		return nil, ErrJournalNotAvailable
	}
	serialNo = strings.TrimSpace(serialNo)
	if serialNo == "" {
		return nil, invalid("serialNo", registration.MsgSerialRequired)
	}
	entries, err := s.journal.ListBySerial(ctx, serialNo)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal for serial %s: %w", serialNo, err)
	}
	return entries, nil
}

// RefreshCatalog reloads the catalog now. Sessions already open keep their
// snapshot.
func (s *OperatorService) RefreshCatalog(ctx context.Context, performingAdminID int64) (*catalog.Catalog, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	if err := s.catalog.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.catalog.Load(ctx)
}

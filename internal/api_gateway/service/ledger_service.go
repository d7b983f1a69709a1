package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/admiral-games/token-ledger/internal/domain/ledger"
	"github.com/admiral-games/token-ledger/internal/domain/shared"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	engine     Submitter
	ledgerRepo ledger.Repository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(engine Submitter, ledgerRepo ledger.Repository) LedgerService {
	return &LedgerServiceImpl{
		engine:     engine,
		ledgerRepo: ledgerRepo,
	}
}

func (s *LedgerServiceImpl) Submit(ctx context.Context, req *shared.TransactionRequest) (*ledger.Entry, bool, error) {
	return s.engine.Submit(ctx, req)
}

func (s *LedgerServiceImpl) History(ctx context.Context, accountID string, filter ledger.HistoryFilter) ([]*ledger.Entry, int64, *ledger.Summary, error) {
	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, 0, nil, err
	}

	total, err := s.ledgerRepo.CountByAccount(ctx, accountID, filter)
	if err != nil {
		return nil, 0, nil, err
	}

	summary, err := s.ledgerRepo.SummarizeByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, nil, err
	}

	return entries, total, summary, nil
}

func (s *LedgerServiceImpl) AttachExternalReference(ctx context.Context, transactionID uuid.UUID, reference string) (*ledger.Entry, error) {
	if err := s.ledgerRepo.AttachExternalReference(ctx, transactionID, reference); err != nil {
		return nil, err
	}
	return s.ledgerRepo.GetByTransactionID(ctx, transactionID)
}

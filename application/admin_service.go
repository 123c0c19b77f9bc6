package application

import (
	"context"
	"fmt"

	"chatcoin/domain/entities"
)

// AdminService exposes the operator surfaces: the dead letter queue and the
// ledger audit queries
type AdminService struct {
	uowFactory UnitOfWorkFactory
}

// NewAdminService creates a new admin service
func NewAdminService(uowFactory UnitOfWorkFactory) *AdminService {
	return &AdminService{uowFactory: uowFactory}
}

// ListFailedJobs returns permanently failed award jobs for inspection
func (s *AdminService) ListFailedJobs(ctx context.Context, limit int) ([]*entities.AwardJob, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	return uow.AwardJobRepository().ListFailed(ctx, limit)
}

// LedgerHistory returns a user's most recent ledger entries
func (s *AdminService) LedgerHistory(ctx context.Context, userID string, limit int) ([]*entities.LedgerEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	return uow.LedgerRepository().GetByUser(ctx, userID, limit)
}

// ReconcileResult compares a balance against its ledger
type ReconcileResult struct {
	UserID     string
	Balance    int64
	LedgerSum  int64
	Reconciled bool
}

// ReconcileUser checks that a user's balance equals the sum of their ledger
// deltas. The two are written in the same transactions, so a mismatch means
// corruption.
func (s *AdminService) ReconcileUser(ctx context.Context, userID string) (*ReconcileResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = uow.Rollback()
	}()

	user, err := uow.UserRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	var balance int64
	if user != nil {
		balance = user.Balance
	}

	sum, err := uow.LedgerRepository().SumDeltas(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger for user %s: %w", userID, err)
	}

	return &ReconcileResult{
		UserID:     userID,
		Balance:    balance,
		LedgerSum:  sum,
		Reconciled: balance == sum,
	}, nil
}

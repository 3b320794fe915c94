package material

import (
	"context"

	"github.com/factory/backend/internal/domain/material"
)

// TransactionScope provides transactional access to the repositories a lot
// intake writes to. The aggregate counter and the lot ledger commit as one
// unit so they cannot drift.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that take
// part in a lot intake. Both repositories share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// Materials returns the raw material repository scoped to the current transaction
	Materials() material.RawMaterialRepository
	// Lots returns the lot ledger repository scoped to the current transaction
	Lots() material.RawMaterialLotRepository
}

// NoOpTransactionScope runs the scoped function against plain repositories
// without a real transaction. Useful for tests with in-memory fakes.
type NoOpTransactionScope struct {
	MaterialRepo material.RawMaterialRepository
	LotRepo      material.RawMaterialLotRepository
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Materials returns the raw material repository.
func (s *NoOpTransactionScope) Materials() material.RawMaterialRepository { return s.MaterialRepo }

// Lots returns the lot ledger repository.
func (s *NoOpTransactionScope) Lots() material.RawMaterialLotRepository { return s.LotRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

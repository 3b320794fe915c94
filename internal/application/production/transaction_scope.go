package production

import (
	"context"

	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/production"
)

// TransactionScope provides transactional access to the repositories a batch
// transition writes to. Everything executed within a scope commits or rolls
// back as one unit: bottle stock, material counters, lot remainders, the
// consumption ledger, the batch row and the finished goods rows can never
// partially persist.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories that take
// part in a batch transition. All repositories returned share the same
// underlying database transaction.
type TransactionalRepositories interface {
	// Batches returns the batch repository scoped to the current transaction
	Batches() production.BatchRepository
	// Bottles returns the bottle type repository scoped to the current transaction
	Bottles() catalog.BottleTypeRepository
	// Materials returns the raw material repository scoped to the current transaction
	Materials() material.RawMaterialRepository
	// Lots returns the lot ledger repository scoped to the current transaction
	Lots() material.RawMaterialLotRepository
	// Consumptions returns the consumption ledger repository scoped to the current transaction
	Consumptions() production.ConsumptionRecordRepository
	// FinishedGoods returns the finished goods repository scoped to the current transaction
	FinishedGoods() production.FinishedGoodsRepository
}

// NoOpTransactionScope runs the scoped function against plain repositories
// without a real transaction. Useful for tests with in-memory fakes.
type NoOpTransactionScope struct {
	BatchRepo        production.BatchRepository
	BottleRepo       catalog.BottleTypeRepository
	MaterialRepo     material.RawMaterialRepository
	LotRepo          material.RawMaterialLotRepository
	ConsumptionRepo  production.ConsumptionRecordRepository
	FinishedGoodRepo production.FinishedGoodsRepository
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Batches returns the batch repository.
func (s *NoOpTransactionScope) Batches() production.BatchRepository { return s.BatchRepo }

// Bottles returns the bottle type repository.
func (s *NoOpTransactionScope) Bottles() catalog.BottleTypeRepository { return s.BottleRepo }

// Materials returns the raw material repository.
func (s *NoOpTransactionScope) Materials() material.RawMaterialRepository { return s.MaterialRepo }

// Lots returns the lot ledger repository.
func (s *NoOpTransactionScope) Lots() material.RawMaterialLotRepository { return s.LotRepo }

// Consumptions returns the consumption ledger repository.
func (s *NoOpTransactionScope) Consumptions() production.ConsumptionRecordRepository {
	return s.ConsumptionRepo
}

// FinishedGoods returns the finished goods repository.
func (s *NoOpTransactionScope) FinishedGoods() production.FinishedGoodsRepository {
	return s.FinishedGoodRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

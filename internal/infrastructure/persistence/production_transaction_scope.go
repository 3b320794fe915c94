package persistence

import (
	"context"

	appprod "github.com/factory/backend/internal/application/production"
	"github.com/factory/backend/internal/domain/catalog"
	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/production"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appprod.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Batches returns the batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Batches() production.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

// Bottles returns the bottle type repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Bottles() catalog.BottleTypeRepository {
	return NewGormBottleTypeRepository(r.tx)
}

// Materials returns the raw material repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Materials() material.RawMaterialRepository {
	return NewGormRawMaterialRepository(r.tx)
}

// Lots returns the lot ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Lots() material.RawMaterialLotRepository {
	return NewGormRawMaterialLotRepository(r.tx)
}

// Consumptions returns the consumption ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Consumptions() production.ConsumptionRecordRepository {
	return NewGormConsumptionRecordRepository(r.tx)
}

// FinishedGoods returns the finished goods repository scoped to the current transaction.
func (r *gormTransactionalRepositories) FinishedGoods() production.FinishedGoodsRepository {
	return NewGormFinishedGoodsRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appprod.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appprod.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

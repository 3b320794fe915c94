package persistence

import (
	"context"

	appmat "github.com/factory/backend/internal/application/material"
	"github.com/factory/backend/internal/domain/material"
	"gorm.io/gorm"
)

// GormMaterialTransactionScope implements the material TransactionScope
// using GORM transactions. Lot intake commits the ledger row and the counter
// update as one unit.
type GormMaterialTransactionScope struct {
	db *gorm.DB
}

// NewGormMaterialTransactionScope creates a new GormMaterialTransactionScope.
func NewGormMaterialTransactionScope(db *gorm.DB) *GormMaterialTransactionScope {
	return &GormMaterialTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *GormMaterialTransactionScope) Execute(ctx context.Context, fn func(repos appmat.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormMaterialTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormMaterialTransactionalRepositories provides access to the intake
// repositories within a transaction.
type gormMaterialTransactionalRepositories struct {
	tx *gorm.DB
}

// Materials returns the raw material repository scoped to the current transaction.
func (r *gormMaterialTransactionalRepositories) Materials() material.RawMaterialRepository {
	return NewGormRawMaterialRepository(r.tx)
}

// Lots returns the lot ledger repository scoped to the current transaction.
func (r *gormMaterialTransactionalRepositories) Lots() material.RawMaterialLotRepository {
	return NewGormRawMaterialLotRepository(r.tx)
}

// Ensure GormMaterialTransactionScope implements TransactionScope
var _ appmat.TransactionScope = (*GormMaterialTransactionScope)(nil)

// Ensure gormMaterialTransactionalRepositories implements TransactionalRepositories
var _ appmat.TransactionalRepositories = (*gormMaterialTransactionalRepositories)(nil)

package material

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/factory/backend/internal/domain/material"
	"github.com/factory/backend/internal/domain/shared"
)

// MaterialService serves raw material reads and the lot intake path. Intake
// is the only mutation: it appends a lot to the ledger and folds the
// acquisition into the aggregate counter in the same transaction.
type MaterialService struct {
	materialRepo material.RawMaterialRepository
	lotRepo      material.RawMaterialLotRepository
	txScope      TransactionScope
	logger       *zap.Logger
}

// NewMaterialService creates a new MaterialService.
func NewMaterialService(
	materialRepo material.RawMaterialRepository,
	lotRepo material.RawMaterialLotRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *MaterialService {
	return &MaterialService{
		materialRepo: materialRepo,
		lotRepo:      lotRepo,
		txScope:      txScope,
		logger:       logger,
	}
}

// Get returns one raw material.
func (s *MaterialService) Get(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	m, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMaterialResponse(m), nil
}

// List returns raw materials matching the filter.
func (s *MaterialService) List(ctx context.Context, filter shared.Filter) ([]MaterialResponse, error) {
	materials, err := s.materialRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		out = append(out, *toMaterialResponse(&materials[i]))
	}
	return out, nil
}

// ListLots returns the lots of a material, consumed ones included, in the
// order the FIFO engine consumes them.
func (s *MaterialService) ListLots(ctx context.Context, materialID uuid.UUID, filter shared.Filter) ([]LotResponse, error) {
	if _, err := s.materialRepo.FindByID(ctx, materialID); err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.FindByMaterial(ctx, materialID, filter)
	if err != nil {
		return nil, err
	}
	return toLotResponses(lots), nil
}

// Intake receives a new acquisition lot. The lot ledger gains a row and the
// material's counter and rolling average price absorb the acquisition, both
// under the material's row lock.
func (s *MaterialService) Intake(ctx context.Context, materialID uuid.UUID, input IntakeInput) (*LotResponse, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "intake quantity must be positive")
	}
	if input.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "intake unit cost cannot be negative")
	}
	acquiredAt := time.Now()
	if input.AcquiredAt != nil {
		acquiredAt = *input.AcquiredAt
	}

	var lot *material.RawMaterialLot
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		m, err := repos.Materials().FindByIDForUpdate(ctx, materialID)
		if err != nil {
			return err
		}
		if err := m.Receive(input.Quantity, input.UnitCost); err != nil {
			return err
		}
		lot = material.NewLot(materialID, acquiredAt, input.Quantity, input.UnitCost)
		if err := repos.Lots().Create(ctx, lot); err != nil {
			return err
		}
		return repos.Materials().Save(ctx, m)
	})
	if err != nil {
		if _, ok := err.(*shared.DomainError); !ok {
			s.logger.Error("Failed to receive material lot",
				zap.String("material_id", materialID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Material lot received",
		zap.String("material_id", materialID.String()),
		zap.String("lot_id", lot.ID.String()),
		zap.String("quantity", input.Quantity.String()))
	return toLotResponse(lot), nil
}

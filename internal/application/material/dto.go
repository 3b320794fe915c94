package material

import (
	"time"

	"github.com/factory/backend/internal/domain/material"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntakeInput is the request to receive a new acquisition lot of a material.
// AcquiredAt is optional; an omitted value means the lot arrives now.
type IntakeInput struct {
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost   decimal.Decimal `json:"unit_cost" binding:"required"`
	AcquiredAt *time.Time      `json:"acquired_at"`
}

// MaterialResponse is the read model of a raw material.
type MaterialResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	AveragePrice decimal.Decimal `json:"average_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LotResponse is the read model of one acquisition lot.
type LotResponse struct {
	ID                uuid.UUID       `json:"id"`
	MaterialID        uuid.UUID       `json:"material_id"`
	AcquiredAt        time.Time       `json:"acquired_at"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toMaterialResponse(m *material.RawMaterial) *MaterialResponse {
	return &MaterialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Unit:         m.Unit,
		CurrentStock: m.CurrentStock,
		AveragePrice: m.AveragePrice,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toLotResponse(l *material.RawMaterialLot) *LotResponse {
	return &LotResponse{
		ID:                l.ID,
		MaterialID:        l.MaterialID,
		AcquiredAt:        l.AcquiredAt,
		QuantityRemaining: l.QuantityRemaining,
		UnitCost:          l.UnitCost,
		CreatedAt:         l.CreatedAt,
	}
}

func toLotResponses(lots []material.RawMaterialLot) []LotResponse {
	out := make([]LotResponse, 0, len(lots))
	for i := range lots {
		out = append(out, *toLotResponse(&lots[i]))
	}
	return out
}

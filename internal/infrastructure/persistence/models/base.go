package models

import (
	"encoding/json"
	"time"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// marshalJSON serializes v into a jsonb column value. Nil and empty inputs
// serialize rather than short-circuit so the column stays well-formed JSON.
func marshalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// unmarshalJSON deserializes a jsonb column value into target. An empty
// column is treated as absent, not as an error.
func unmarshalJSON(raw string, target any) {
	if raw == "" {
		return
	}
	// Malformed rows keep the target's zero value.
	_ = json.Unmarshal([]byte(raw), target)
}

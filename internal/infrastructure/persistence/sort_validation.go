package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// BatchSortFields contains allowed sort fields for production batches
var BatchSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"batch_code":   true,
	"status":       true,
	"planned_date": true,
	"completed_at": true,
}

// BottleTypeSortFields contains allowed sort fields for bottle types
var BottleTypeSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"size":        true,
	"capacity_ml": true,
	"stock":       true,
}

// RawMaterialSortFields contains allowed sort fields for raw materials
var RawMaterialSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"name":          true,
	"unit":          true,
	"current_stock": true,
}

// FinishedGoodSortFields contains allowed sort fields for finished goods
var FinishedGoodSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"manufactured_date": true,
	"quantity":          true,
}

package persistence

import (
	"slices"
	"strings"
)

// instructionSortColumns whitelists the columns callers may order instructions by
var instructionSortColumns = []string{
	"created_at",
	"updated_at",
	"paid_at",
	"amount_cents",
	"status",
	"currency",
	"id",
}

// sortDirection accepts "asc" in any case; everything else sorts newest first
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// sortColumn returns column when it is whitelisted, otherwise fallback.
// Caller input never reaches ORDER BY unchecked.
func sortColumn(column string, allowed []string, fallback string) string {
	column = strings.ToLower(strings.TrimSpace(column))
	if slices.Contains(allowed, column) {
		return column
	}
	return fallback
}

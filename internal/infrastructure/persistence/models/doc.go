// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel shared by all tables
// - sku_mapping.go: operator-managed SKU substitution rules
// - processing_log.go: append-only webhook processing audit entries
//
// Collection fields (tags, replacements) are stored as JSON text so the same
// models work on PostgreSQL and SQLite.
package models

// Package orgscope provides per-org database scoping for GORM.
//
// This package implements automatic org_id filtering to prevent cross-org
// data access at the repository layer. It extracts the org ID from the request
// context and automatically applies WHERE org_id = ? conditions to all queries.
//
// Usage:
//
//	db := orgscope.NewOrgDB(gormDB)
//	scopedDB := db.WithContext(ctx) // automatically applies org filtering
//	scopedDB.Find(&products) // WHERE org_id = 'xxx' is auto-added
package orgscope

import (
	"context"
	"errors"

	"github.com/casaops/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrOrgIDRequired is returned when org_id is required but not found
var ErrOrgIDRequired = errors.New("org_id is required but not found in context")

// ErrInvalidOrgID is returned when org_id format is invalid
var ErrInvalidOrgID = errors.New("invalid org_id format")

// OrgScope applies org filtering to GORM queries
func OrgScope(orgID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	}
}

// OrgScopeString applies org filtering using string org ID
func OrgScopeString(orgID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	}
}

// OrgCreateScope sets org_id on create operations
func OrgCreateScope(orgID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Set("org_id", orgID)
	}
}

// OrgDB wraps GORM DB with automatic org scoping
type OrgDB struct {
	db        *gorm.DB
	orgColumn string
	required  bool
}

// Config holds configuration for OrgDB
type Config struct {
	// OrgColumn is the name of the org ID column (default: "org_id")
	OrgColumn string
	// Required determines if org_id is mandatory (default: true)
	Required bool
}

// DefaultConfig returns default OrgDB configuration
func DefaultConfig() Config {
	return Config{
		OrgColumn: "org_id",
		Required:  true,
	}
}

// NewOrgDB creates a new OrgDB with default configuration
func NewOrgDB(db *gorm.DB) *OrgDB {
	return NewOrgDBWithConfig(db, DefaultConfig())
}

// NewOrgDBWithConfig creates a new OrgDB with custom configuration
func NewOrgDBWithConfig(db *gorm.DB, cfg Config) *OrgDB {
	if cfg.OrgColumn == "" {
		cfg.OrgColumn = "org_id"
	}
	return &OrgDB{
		db:        db,
		orgColumn: cfg.OrgColumn,
		required:  cfg.Required,
	}
}

// DB returns the underlying GORM DB without org scoping
// Use with caution - this bypasses org isolation
func (t *OrgDB) DB() *gorm.DB {
	return t.db
}

// WithContext returns a GORM DB scoped to the org from context.
// It extracts org_id from the context (set by org middleware)
// and automatically applies the org filter to all queries.
//
// If org_id is not found in context and Required is true, it returns
// a DB that will error on any operation.
func (t *OrgDB) WithContext(ctx context.Context) *gorm.DB {
	orgID := logger.GetOrgID(ctx)

	if orgID == "" {
		if t.required {
			// Return a DB that will error on execution
			db := t.db.WithContext(ctx)
			_ = db.AddError(ErrOrgIDRequired)
			return db
		}
		// If not required, return DB without org scope
		return t.db.WithContext(ctx)
	}

	// Validate UUID format
	if _, err := uuid.Parse(orgID); err != nil {
		db := t.db.WithContext(ctx)
		_ = db.AddError(ErrInvalidOrgID)
		return db
	}

	// Apply org scope
	return t.db.WithContext(ctx).Scopes(OrgScopeString(orgID))
}

// WithOrg returns a GORM DB scoped to a specific org ID.
// Use this when you have the org ID directly rather than from context.
func (t *OrgDB) WithOrg(orgID uuid.UUID) *gorm.DB {
	if orgID == uuid.Nil {
		if t.required {
			db := t.db
			_ = db.AddError(ErrOrgIDRequired)
			return db
		}
		return t.db
	}
	return t.db.Scopes(OrgScope(orgID))
}

// WithOrgString returns a GORM DB scoped to a specific org ID string.
func (t *OrgDB) WithOrgString(orgID string) *gorm.DB {
	if orgID == "" {
		if t.required {
			db := t.db
			_ = db.AddError(ErrOrgIDRequired)
			return db
		}
		return t.db
	}

	// Validate UUID format
	if _, err := uuid.Parse(orgID); err != nil {
		db := t.db
		_ = db.AddError(ErrInvalidOrgID)
		return db
	}

	return t.db.Scopes(OrgScopeString(orgID))
}

// ForOrg creates a new OrgDB instance scoped to a specific context.
// This is useful for creating a scoped DB that can be passed around.
func (t *OrgDB) ForOrg(ctx context.Context, orgID uuid.UUID) *gorm.DB {
	return t.db.WithContext(ctx).Scopes(OrgScope(orgID))
}

// Transaction executes a function within a database transaction with org scope
func (t *OrgDB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	orgID := logger.GetOrgID(ctx)

	if orgID == "" && t.required {
		return ErrOrgIDRequired
	}

	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if orgID != "" {
			tx = tx.Scopes(OrgScopeString(orgID))
		}
		return fn(tx)
	})
}

// Unscoped returns the underlying DB without any org scoping.
// WARNING: Use this with extreme caution as it bypasses org isolation.
// This should only be used for system-level operations or migrations.
func (t *OrgDB) Unscoped() *gorm.DB {
	return t.db
}

// SetRequired changes whether org_id is required
func (t *OrgDB) SetRequired(required bool) *OrgDB {
	return &OrgDB{
		db:        t.db,
		orgColumn: t.orgColumn,
		required:  required,
	}
}

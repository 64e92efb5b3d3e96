package orgscope

import (
	"strings"

	"github.com/casaops/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrgCallback provides GORM callback hooks for automatic org filtering
type OrgCallback struct {
	orgColumn string
	required  bool
}

// NewOrgCallback creates a new org callback handler
func NewOrgCallback(orgColumn string, required bool) *OrgCallback {
	if orgColumn == "" {
		orgColumn = "org_id"
	}
	return &OrgCallback{
		orgColumn: orgColumn,
		required:  required,
	}
}

// RegisterCallbacks registers org callbacks with GORM
func (c *OrgCallback) RegisterCallbacks(db *gorm.DB) {
	// Register query callback - add org filter
	_ = db.Callback().Query().Before("gorm:query").Register("orgscope:before_query", c.beforeQuery)

	// Register update callback - ensure org filter
	_ = db.Callback().Update().Before("gorm:update").Register("orgscope:before_update", c.beforeUpdate)

	// Register delete callback - ensure org filter
	_ = db.Callback().Delete().Before("gorm:delete").Register("orgscope:before_delete", c.beforeDelete)

	// Register row query callback - add org filter
	_ = db.Callback().Row().Before("gorm:row").Register("orgscope:before_row", c.beforeQuery)

	// Note: Create callback is not registered because org_id should be set
	// explicitly by the application when creating entities
}

// beforeQuery adds org filter to SELECT queries
func (c *OrgCallback) beforeQuery(db *gorm.DB) {
	c.addOrgFilter(db)
}

// beforeUpdate adds org filter to UPDATE queries
func (c *OrgCallback) beforeUpdate(db *gorm.DB) {
	c.addOrgFilter(db)
}

// beforeDelete adds org filter to DELETE queries
func (c *OrgCallback) beforeDelete(db *gorm.DB) {
	c.addOrgFilter(db)
}

// addOrgFilter adds org filtering to the query
func (c *OrgCallback) addOrgFilter(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}

	// Skip if unscoped
	if db.Statement.Unscoped {
		return
	}

	// Skip if already has org condition
	if c.hasOrgCondition(db) {
		return
	}

	// Get org ID from context
	orgID := logger.GetOrgID(db.Statement.Context)
	if orgID == "" {
		if c.required {
			_ = db.AddError(ErrOrgIDRequired)
		}
		return
	}

	// Validate UUID format
	if _, err := uuid.Parse(orgID); err != nil {
		_ = db.AddError(ErrInvalidOrgID)
		return
	}

	// Add org filter using GORM's clause
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: c.orgColumn},
				Value:  orgID,
			},
		},
	})
}

// hasOrgCondition checks if org_id condition is already present
func (c *OrgCallback) hasOrgCondition(db *gorm.DB) bool {
	// Check if there's a manual scope applied via Unscoped
	if db.Statement.Unscoped {
		return true
	}

	// Check existing where clauses for org_id
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if c.exprContainsOrg(expr) {
					return true
				}
			}
		}
	}

	// Also check the built SQL if available
	sql := db.Statement.SQL.String()
	if sql != "" && strings.Contains(sql, c.orgColumn) {
		return true
	}

	return false
}

// exprContainsOrg checks if an expression contains org_id column
func (c *OrgCallback) exprContainsOrg(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == c.orgColumn
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == c.orgColumn
		}
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if c.exprContainsOrg(cond) {
				return true
			}
		}
	case clause.OrConditions:
		for _, cond := range e.Exprs {
			if c.exprContainsOrg(cond) {
				return true
			}
		}
	}
	return false
}

// EnableAutoOrgFilter enables automatic org filtering on a GORM DB instance
// This registers callbacks that automatically add org_id filtering to all queries
func EnableAutoOrgFilter(db *gorm.DB, required bool) {
	c := NewOrgCallback("org_id", required)
	c.RegisterCallbacks(db)
}

// DisableAutoOrgFilter removes the org callbacks (not recommended in production)
func DisableAutoOrgFilter(db *gorm.DB) {
	// Note: GORM doesn't provide a clean way to remove callbacks
	// This is mainly for testing purposes
	_ = db.Callback().Query().Remove("orgscope:before_query")
	_ = db.Callback().Update().Remove("orgscope:before_update")
	_ = db.Callback().Delete().Remove("orgscope:before_delete")
	_ = db.Callback().Row().Remove("orgscope:before_row")
}

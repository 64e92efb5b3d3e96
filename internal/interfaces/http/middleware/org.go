package middleware

import (
	"net/http"
	"strings"

	"github.com/casaops/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Org context keys
const (
	OrgIDKey     = "org_id"
	OrgHeaderKey = "X-Org-ID"
)

// OrgValidator defines the interface for validating an org
type OrgValidator interface {
	ValidateOrg(orgID string) error
}

// OrgMiddlewareConfig holds configuration for org scoping middleware
type OrgMiddlewareConfig struct {
	// HeaderEnabled enables X-Org-ID header extraction. This is a
	// development convenience and must stay disabled in production,
	// where the org always comes from the verified token.
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SkipPaths are paths that don't require org context (e.g., health check)
	SkipPaths []string
	// Required determines if org context is mandatory
	Required bool
	// Validator is an optional validator to check if the org exists and is active
	Validator OrgValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOrgConfig returns default org middleware configuration
func DefaultOrgConfig() OrgMiddlewareConfig {
	return OrgMiddlewareConfig{
		HeaderEnabled: false,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:      true,
		Validator:     nil,
		Logger:        nil,
	}
}

// OrgMiddleware extracts the org scope from the request.
// Extraction order: JWT claims > X-Org-ID header (if enabled).
func OrgMiddleware() gin.HandlerFunc {
	return OrgMiddlewareWithConfig(DefaultOrgConfig())
}

// OrgMiddlewareWithConfig returns org middleware with custom configuration
func OrgMiddlewareWithConfig(cfg OrgMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if path should be skipped
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		var orgID string
		var extractionMethod string

		// Priority 1: JWT claims (if JWT middleware has already run)
		if cfg.JWTEnabled {
			if jwtOrgID, exists := c.Get(JWTOrgIDKey); exists {
				if oid, ok := jwtOrgID.(string); ok && oid != "" {
					orgID = oid
					extractionMethod = "jwt"
				}
			}
		}

		// Priority 2: X-Org-ID header (development only)
		if orgID == "" && cfg.HeaderEnabled {
			if headerOrgID := c.GetHeader(OrgHeaderKey); headerOrgID != "" {
				orgID = headerOrgID
				extractionMethod = "header"
			}
		}

		// Validate org ID format if present
		if orgID != "" {
			if _, err := uuid.Parse(orgID); err != nil {
				respondUnauthorized(c, "Invalid org ID format")
				return
			}
		}

		// Check if org is required
		if orgID == "" && cfg.Required {
			respondUnauthorized(c, "Organization identification required")
			return
		}

		// Optional: Validate org exists and is active
		if orgID != "" && cfg.Validator != nil {
			if err := cfg.Validator.ValidateOrg(orgID); err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Org validation failed",
					zap.String("org_id", orgID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive organization")
				return
			}
		}

		// Set org information in context
		if orgID != "" {
			// Set in gin context for easy access in handlers
			c.Set(OrgIDKey, orgID)

			// Set in request context for service layer access
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithOrgID(ctx, log, orgID)
			c.Request = c.Request.WithContext(ctx)

			// Log extraction method for debugging
			if cfg.Logger != nil {
				cfg.Logger.Debug("Org identified",
					zap.String("org_id", orgID),
					zap.String("method", extractionMethod),
				)
			}
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetOrgID retrieves the org ID from gin.Context
func GetOrgID(c *gin.Context) string {
	if orgID, exists := c.Get(OrgIDKey); exists {
		if oid, ok := orgID.(string); ok {
			return oid
		}
	}
	return ""
}

// GetOrgUUID retrieves the org ID as UUID from gin.Context
func GetOrgUUID(c *gin.Context) (uuid.UUID, error) {
	orgID := GetOrgID(c)
	if orgID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(orgID)
}

// MustGetOrgID retrieves the org ID from gin.Context or panics if not found
// Use this only in handlers where org scope is guaranteed to exist
func MustGetOrgID(c *gin.Context) string {
	orgID := GetOrgID(c)
	if orgID == "" {
		panic("org_id not found in context")
	}
	return orgID
}

// MustGetOrgUUID retrieves the org ID as UUID or panics if not found
func MustGetOrgUUID(c *gin.Context) uuid.UUID {
	orgUUID, err := GetOrgUUID(c)
	if err != nil || orgUUID == uuid.Nil {
		panic("valid org_id not found in context")
	}
	return orgUUID
}

// OptionalOrgMiddleware creates middleware that doesn't require an org
func OptionalOrgMiddleware() gin.HandlerFunc {
	cfg := DefaultOrgConfig()
	cfg.Required = false
	return OrgMiddlewareWithConfig(cfg)
}

package middleware

import (
	"net/http"

	"github.com/casaops/backend/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []string)
}

// RequireRole creates middleware that requires any of the specified roles.
// The actor must carry at least one of the listed roles to proceed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return RequireRoleWithConfig(RoleConfig{}, roles...)
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		if !claims.HasRole(roles...) {
			handleRoleDenied(c, cfg, roles, "Actor lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("actor_id", claims.ActorID),
				zap.String("role", claims.Role),
				zap.Strings("required_any", roles),
			)
		}

		c.Next()
	}
}

// RequireAdmin creates middleware that requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

// RequireManager creates middleware that requires manager or admin.
// Admins implicitly satisfy manager-level checks.
func RequireManager() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin, auth.RoleManager)
}

// RequireStaff creates middleware that allows any authenticated staff member
func RequireStaff() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin, auth.RoleManager, auth.RoleStaff)
}

// handleRoleDenied handles role denied scenarios
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		actorID := ""
		role := ""
		if claims != nil {
			actorID = claims.ActorID
			role = claims.Role
		}

		cfg.Logger.Warn("Role denied",
			zap.String("reason", reason),
			zap.String("actor_id", actorID),
			zap.String("actor_role", role),
			zap.Strings("required_roles", requiredRoles),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}

// HasRole is a helper function to check the actor's role in handlers
func HasRole(c *gin.Context, roles ...string) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.HasRole(roles...)
}

// IsAdmin reports whether the current actor carries the admin role
func IsAdmin(c *gin.Context) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	return claims.IsAdmin()
}

// MustHaveRole aborts the request if the actor doesn't carry any of the roles.
// Returns true if the actor has a matching role, false if aborted.
func MustHaveRole(c *gin.Context, roles ...string) bool {
	if !HasRole(c, roles...) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ERR_FORBIDDEN",
				"message": "Access denied: insufficient role",
			},
		})
		return false
	}
	return true
}

// CheckAccessFunc is a function type for custom access checking
type CheckAccessFunc func(claims *auth.Claims, c *gin.Context) bool

// RequireCustomAccess creates middleware with a custom access check function.
// This allows access logic that can't be expressed with role names alone.
func RequireCustomAccess(checkFunc CheckAccessFunc) gin.HandlerFunc {
	return RequireCustomAccessWithConfig(checkFunc, RoleConfig{})
}

// RequireCustomAccessWithConfig creates custom access middleware with config
func RequireCustomAccessWithConfig(checkFunc CheckAccessFunc, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, []string{"custom"}, "No authentication claims found")
			return
		}

		if !checkFunc(claims, c) {
			handleRoleDenied(c, cfg, []string{"custom"}, "Custom access check failed")
			return
		}

		c.Next()
	}
}

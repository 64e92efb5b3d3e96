package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/interfaces/http/middleware"
)

// getActor builds the audit actor for the current request from JWT claims
// and the request metadata
func getActor(c *gin.Context) (audit.Actor, error) {
	actorID, err := getActorID(c)
	if err != nil {
		return audit.Actor{}, err
	}
	return audit.Actor{
		ID:        actorID,
		Name:      middleware.GetJWTActorName(c),
		Role:      middleware.GetJWTRole(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, nil
}

// parseIDParam parses a UUID path parameter
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

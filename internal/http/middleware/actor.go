package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grievance_desk/backend/internal/models"
)

const (
	ActorIDHeader   = "X-Actor-Id"
	ActorRoleHeader = "X-Actor-Role"
	ActorUnitHeader = "X-Actor-Unit"

	actorKey = "actor"
)

// Actor reads the caller identity set by the gateway in front of the API.
// A missing role defaults to citizen when an id is present.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := models.Actor{
			ID:   strings.TrimSpace(c.GetHeader(ActorIDHeader)),
			Role: models.ActorRole(strings.ToLower(strings.TrimSpace(c.GetHeader(ActorRoleHeader)))),
			Unit: strings.TrimSpace(c.GetHeader(ActorUnitHeader)),
		}
		switch a.Role {
		case models.RoleCitizen, models.RoleOfficer, models.RoleAdmin:
		case "":
			if a.ID != "" {
				a.Role = models.RoleCitizen
			}
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "INVALID_ACTOR",
					"message": "Unknown actor role",
				},
			})
			return
		}
		c.Set(actorKey, a)
		c.Next()
	}
}

// ActorFrom returns the actor stored by Actor, or the zero (system) actor.
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(models.Actor); ok {
			return a
		}
	}
	return models.Actor{}
}

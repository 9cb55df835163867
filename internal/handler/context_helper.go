package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/greenlake-gma/progress-api/internal/middleware"
	"github.com/greenlake-gma/progress-api/internal/models"
	"github.com/greenlake-gma/progress-api/internal/service"
	appErrors "github.com/greenlake-gma/progress-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext resolves the acting user for audit attribution. Calls
// without a known actor are executed without writing a ledger entry.
func actorFromContext(c *gin.Context) *service.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil
	}
	actor := &service.Actor{UserID: claims.UserID}
	if agent := c.GetHeader("User-Agent"); agent != "" {
		actor.UserAgent = &agent
	}
	return actor
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

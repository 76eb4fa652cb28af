package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/team-task-api/internal/authz"
	apierrors "github.com/yukikurage/team-task-api/internal/errors"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/utils"
)

// bindJSON binds the request body and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

var errValidationFailed = apierrors.New(apierrors.KindValidation, "Validation failed")

func respondBindError(c *gin.Context, err error) {
	if details := utils.ValidationDetails(err); details != nil {
		apierrors.Respond(c, errValidationFailed.WithDetails(details))
		return
	}
	apierrors.BadRequest(c, "Invalid request body")
}

// uuidParam parses a path parameter as a UUID and writes a 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentCaller returns the caller stored by RequireAuth.
func currentCaller(c *gin.Context) (authz.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return caller, ok
}

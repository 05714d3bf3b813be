package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/middleware"
	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

// claimsFromContext returns the caller's claims or writes 401.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// bindJSON decodes the request body or writes 400.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// respond writes data with the meta block collected during the request.
func respond(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	response.JSON(c, status, data, pagination, middleware.ExtractMeta(c))
}

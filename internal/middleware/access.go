package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/access"
	"github.com/noah-isme/ecampus-api/internal/service"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

// Authorize asks the access gate whether the caller's role may perform the
// request's verb on resource. It must run after JWT.
func Authorize(resource access.Resource, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		if err := access.Decide(claims.Role, access.VerbFromMethod(c.Request.Method), resource); err != nil {
			metrics.RecordAccessDenied(string(claims.Role), string(resource))
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}

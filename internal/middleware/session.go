package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguaprep/linguaprep-backend/internal/response"
	"github.com/linguaprep/linguaprep-backend/internal/service"
)

// CheckSingleDeviceSession validates the JWT's JTI against the live login
// in Redis. If the JTI doesn't match, the request is rejected (the login
// was reset or superseded).
func CheckSingleDeviceSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.CandidateID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}

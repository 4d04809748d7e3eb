package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adamscao/skillguard/internal/auth"
)

// Admin credential headers
const (
	HeaderAdminToken = "X-Admin-Token"
	HeaderAdminOTP   = "X-Admin-OTP"
)

// AdminAuth middleware checks the admin token and, when configured, the one-time code
func AdminAuth(authenticator *auth.AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := authenticator.Check(c.GetHeader(HeaderAdminToken), c.GetHeader(HeaderAdminOTP))

		if errors.Is(err, auth.ErrMissingCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Admin token required",
			})
			c.Abort()
			return
		}

		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Invalid admin credentials",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

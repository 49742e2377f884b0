package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/utils"
)

// JWTAuthMiddleware authenticates the bearer token and checks its
// session version against the account row. A password reset bumps the
// version, which turns every older token into a 401 here.
func JWTAuthMiddleware(accountRepo repositories.AccountRepository) gin.HandlerFunc {

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		accountID, err := uuid.Parse(claims.AccountID)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		account, err := accountRepo.FindById(context.Background(), accountID)
		if err != nil || account == nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		if account.SessionVersion != claims.SessionVersion {
			utils.RespondError(c, http.StatusUnauthorized, "Session revoked, please log in again")
			c.Abort()
			return
		}

		c.Set("account_id", account.ID)
		c.Next()
	}
}

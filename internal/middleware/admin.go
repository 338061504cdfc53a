package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokestack/backend/internal/admin"
	"github.com/pokestack/backend/internal/models"
)

// AdminAccountKey is where AdminAuth stores the validated account.
const AdminAccountKey = "admin_account"

// AdminValidator checks admin credentials.
type AdminValidator interface {
	Validate(ctx context.Context, phone, token, ip string) (*models.AdminAccount, error)
}

// AdminAuth requires X-Admin-Phone and X-Admin-Token headers naming an
// account that carries role.
func AdminAuth(v AdminValidator, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.GetHeader("X-Admin-Phone")
		token := c.GetHeader("X-Admin-Token")
		if phone == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin credentials required"})
			return
		}

		acc, err := v.Validate(c.Request.Context(), phone, token, c.ClientIP())
		switch {
		case errors.Is(err, admin.ErrIPNotAllowed):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "IP not allowed"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin credentials"})
			return
		}
		if role != "" && !acc.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Set(AdminAccountKey, acc)
		c.Next()
	}
}

// AdminAccount returns the account stored by AdminAuth.
func AdminAccount(c *gin.Context) *models.AdminAccount {
	v, ok := c.Get(AdminAccountKey)
	if !ok {
		return nil
	}
	acc, _ := v.(*models.AdminAccount)
	return acc
}

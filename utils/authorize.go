package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OwnerFunc resolves the user id that owns the resource a request targets.
// ok is false when the owner cannot be determined.
type OwnerFunc func(c *gin.Context) (ownerID uint, ok bool)

// Capability declares who may call a route. A caller passes when their role
// is listed in Roles, or when their role is SelfRole and Owner resolves to
// the caller's own id.
type Capability struct {
	Roles    []string
	SelfRole string
	Owner    OwnerFunc
}

func (k Capability) allows(c *gin.Context, userID uint, role string) bool {
	for _, r := range k.Roles {
		if r == role {
			return true
		}
	}
	if k.SelfRole == "" || k.SelfRole != role {
		return false
	}
	if k.Owner == nil {
		return true
	}
	ownerID, ok := k.Owner(c)
	return ok && ownerID == userID
}

// Authorize is the single gate every protected route goes through.
func Authorize(k Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if !k.allows(c, CurrentUserID(c), role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}

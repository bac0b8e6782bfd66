package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxMemberID  = "member_id"
	ctxSocietyID = "society_id"
	ctxRole      = "role"
)

const RoleSocietyOwner = "society_owner"

// RequireAuth resolves the bearer token into member identity and role on
// the gin context.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		claims, err := s.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxMemberID, claims.MemberID)
		c.Set(ctxSocietyID, claims.SocietyID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole guards owner-only operations. Runs after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func MemberID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxMemberID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func SocietyID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxSocietyID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func Role(c *gin.Context) string {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

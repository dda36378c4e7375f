package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/pkg/utils"
)

// Principal is the caller attached to a request by AuthMiddleware.
type Principal = service.Principal

// PrincipalResolver loads the principal named by verified token claims.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, claims *utils.Claims) (*service.Principal, error)
}

const principalKey = "principal"

// AuthMiddleware verifies the bearer token and re-loads its subject from
// the datastore, so a disabled user is locked out even while their token is
// still valid.
func AuthMiddleware(tokens *utils.TokenManager, resolver PrincipalResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, log, apperror.Unauthenticated("Not authenticated"))
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			log.Debug("Rejected token", zap.Error(err), zap.String("request_id", RequestIDFrom(c)))
			unauthorized(c, log, apperror.Unauthenticated("Could not validate credentials"))
			return
		}

		principal, err := resolver.ResolvePrincipal(c.Request.Context(), claims)
		if err != nil {
			unauthorized(c, log, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireAdmin lets only admins of the caller's hospital through. It must run
// after AuthMiddleware.
func RequireAdmin(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			unauthorized(c, log, apperror.Unauthenticated("Not authenticated"))
			return
		}
		if !principal.IsAdmin() {
			utils.AbortWithError(c, log, apperror.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal set by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, log *zap.Logger, err error) {
	if apperror.KindOf(err) == apperror.KindUnauthenticated {
		c.Header("WWW-Authenticate", "Bearer")
	}
	utils.AbortWithError(c, log, err)
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/auth"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

const (
	// ContextKeyUserID holds the key for the authenticated user's ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUser holds the key for the resolved *models.User in Gin context.
	ContextKeyUser = "currentUser"
	// ContextKeyClaims holds the key for the validated token claims in Gin context.
	ContextKeyClaims = "authClaims"
)

// extractToken pulls the bearer token from the Authorization header, falling
// back to the x-auth-token header for legacy clients.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(c.GetHeader("x-auth-token"))
}

// AuthMiddleware creates a Gin middleware for JWT authentication. It validates
// the token and resolves the full profile so handlers never trust stale claims.
func AuthMiddleware(jwtSecret string, users services.IUserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "No se proporcionó token de autenticación",
			})
			return
		}

		claims, err := auth.ValidateJWT(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Token inválido o expirado",
			})
			return
		}

		userID, err := utils.ParseSixID(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Token inválido o expirado",
			})
			return
		}

		user, err := users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			status := http.StatusInternalServerError
			msg := "Error interno del servidor"
			if errors.Is(err, mongo.ErrNoDocuments) {
				status = http.StatusUnauthorized
				msg = "Token inválido o expirado"
			}
			c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the profile when a valid token is present
// but never rejects the request. Handlers check the context keys themselves.
func OptionalAuthMiddleware(jwtSecret string, users services.IUserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := auth.ValidateJWT(token, jwtSecret)
		if err != nil {
			c.Next()
			return
		}
		userID, err := utils.ParseSixID(claims.UserID)
		if err != nil {
			c.Next()
			return
		}
		user, err := users.FindUserByID(c.Request.Context(), userID)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID from the Gin context.
func CurrentUserID(c *gin.Context) (utils.SixID, bool) {
	value, exists := c.Get(ContextKeyUserID)
	if !exists {
		return utils.SixID{}, false
	}
	id, ok := value.(utils.SixID)
	return id, ok
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/caseprep/practice-service/internal/config"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/utils"
)

// InitAuth configures the Casdoor SDK from service config. Call once at
// startup before installing AuthMiddleware.
func InitAuth(cfg *config.Config) {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
}

// UserProvisioner records authenticated users so their rows exist for
// progress and session foreign references.
type UserProvisioner interface {
	Upsert(ctx context.Context, user *models.User) error
}

// AuthMiddleware validates the bearer token and places user identity on the
// request context. Each user is upserted on first sight per process;
// provisioning failures are logged and retried on the user's next request.
// In development without a Casdoor certificate it trusts the X-User-ID
// header so the service can run standalone.
func AuthMiddleware(cfg *config.Config, logger utils.Logger, users UserProvisioner) gin.HandlerFunc {
	devMode := cfg.Environment != "production" && cfg.CasdoorCertificate == ""

	var mu sync.Mutex
	seen := make(map[string]struct{})
	provision := func(ctx context.Context, user *models.User) {
		if users == nil {
			return
		}
		mu.Lock()
		if _, ok := seen[user.ID]; ok {
			mu.Unlock()
			return
		}
		seen[user.ID] = struct{}{}
		mu.Unlock()

		if err := users.Upsert(ctx, user); err != nil {
			logger.Warn("Failed to record user", "user_id", user.ID, "error", err)
			mu.Lock()
			delete(seen, user.ID)
			mu.Unlock()
		}
	}

	return func(c *gin.Context) {
		if devMode {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set("user_id", userID)
				provision(c.Request.Context(), &models.User{ID: userID, Name: userID})
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or malformed Authorization header",
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Set("user_name", claims.User.Name)
		c.Set("user_roles", claims.User.Tag)
		provision(c.Request.Context(), &models.User{
			ID:          claims.User.Id,
			Name:        claims.User.Name,
			Email:       claims.User.Email,
			DisplayName: claims.User.DisplayName,
		})
		c.Next()
	}
}

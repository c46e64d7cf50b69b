package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/practice-service/internal/config"
	"github.com/caseprep/practice-service/internal/models"
	"github.com/caseprep/practice-service/internal/utils"
)

type stubProvisioner struct {
	mu    sync.Mutex
	users []models.User
	err   error
}

func (s *stubProvisioner) Upsert(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.users = append(s.users, *user)
	return nil
}

func (s *stubProvisioner) recorded() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.User(nil), s.users...)
}

func authTestRouter(cfg *config.Config, users UserProvisioner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(cfg, utils.NewDevelopmentLogger(), users))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return router
}

func devRequest(router *gin.Engine, userID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", userID)
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_DevModeTrustsHeader(t *testing.T) {
	router := authTestRouter(&config.Config{Environment: "development"}, nil)

	w := devRequest(router, "student-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "student-1")
}

func TestAuthMiddleware_RecordsUserOncePerProcess(t *testing.T) {
	stub := &stubProvisioner{}
	router := authTestRouter(&config.Config{Environment: "development"}, stub)

	for i := 0; i < 3; i++ {
		w := devRequest(router, "student-1")
		require.Equal(t, http.StatusOK, w.Code)
	}
	devRequest(router, "student-2")

	recorded := stub.recorded()
	require.Len(t, recorded, 2)
	assert.Equal(t, "student-1", recorded[0].ID)
	assert.Equal(t, "student-2", recorded[1].ID)
}

func TestAuthMiddleware_ProvisioningFailureRetriedNextRequest(t *testing.T) {
	stub := &stubProvisioner{err: errors.New("db down")}
	router := authTestRouter(&config.Config{Environment: "development"}, stub)

	// Failure does not block the request itself.
	w := devRequest(router, "student-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, stub.recorded())

	stub.mu.Lock()
	stub.err = nil
	stub.mu.Unlock()

	devRequest(router, "student-1")
	assert.Len(t, stub.recorded(), 1)
}

func TestAuthMiddleware_MissingTokenRejected(t *testing.T) {
	router := authTestRouter(&config.Config{Environment: "production"}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/luca-ama/ama/internal/models"
)

func performWithRole(t *testing.T, role models.Role, mw gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(ContextUserRole, role)
		}
		c.Next()
	})
	router.GET("/x", mw, func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestRequireModerateAllowsModeratorRoles(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleModerator, models.RolePresenter} {
		w := performWithRole(t, role, RequireModerate())
		assert.Equal(t, http.StatusOK, w.Code, string(role))
	}
}

func TestRequireModerateRejectsParticipant(t *testing.T) {
	w := performWithRole(t, models.RoleUser, RequireModerate())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleRejectsMissingContext(t *testing.T) {
	w := performWithRole(t, "", RequireRole(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

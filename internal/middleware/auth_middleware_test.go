package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"signroom-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffRouter(t *testing.T) (*gin.Engine, *jwt.Generator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gen := jwt.NewGenerator(priv, "signroom", "signroom-staff", "test-key", time.Hour)
	ver := jwt.NewVerifier(&priv.PublicKey, "signroom", "signroom-staff")

	auth := NewAuthMiddleware(ver)
	r := gin.New()
	r.GET("/whoami", auth.StaffAuth(), func(c *gin.Context) {
		email, ok := GetStaffEmail(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"email":         email,
			"roles":         GetRoles(c),
			"is_staff":      HasRole(c, "staff"),
			"authenticated": IsAuthenticated(c),
		})
	})
	return r, gen
}

func TestStaffAuthExposesIdentityToHandlers(t *testing.T) {
	r, gen := staffRouter(t)

	token, _, err := gen.GenerateStaffToken("ops@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ops@example.com")
	assert.Contains(t, w.Body.String(), `"is_staff":true`)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
}

func TestStaffAuthRejectsMissingToken(t *testing.T) {
	r, _ := staffRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStaffAuthRejectsGarbageToken(t *testing.T) {
	r, _ := staffRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHelpersOutsideAuthenticatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetStaffEmail(c)
	assert.False(t, ok)
	assert.Empty(t, GetRoles(c))
	assert.False(t, HasRole(c, "staff"))
	assert.False(t, IsAuthenticated(c))
}

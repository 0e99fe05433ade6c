package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAuthReusesValidator(t *testing.T) {
	t.Setenv("AUTH0_DOMAIN", "tenant.example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	jwtValidator = nil
	first, err := setupAuth()
	require.NoError(t, err)
	require.NotNil(t, first)

	// The singleton populates on first use; later calls reuse it instead of
	// rebuilding the JWKS provider.
	second, err := setupAuth()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEnsureValidTokenRejectsMissingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/accounts/me", nil)

	EnsureValidToken()(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not_authenticated")
}

func TestEnsureValidTokenRejectsMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("AUTH0_DOMAIN", "tenant.example.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example.com")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/accounts/me", nil)
	c.Request.Header.Set("Authorization", "Token abc")

	EnsureValidToken()(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

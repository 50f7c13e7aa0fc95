package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"email":   c.GetString("email"),
		})
	})
	r.PUT("/admin", AuthRequired(testSecret), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredValidToken(t *testing.T) {
	r := authRouter()
	token := signToken(t, jwt.MapClaims{
		"user_id": "alice",
		"email":   "alice@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := doRequest(r, http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"alice"`)
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	w := doRequest(authRouter(), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": "alice",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	w := doRequest(authRouter(), http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredWrongSecret(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "alice",
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	w := doRequest(authRouter(), http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredMissingUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"email": "alice@example.com"})
	w := doRequest(authRouter(), http.MethodGet, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := authRouter()

	member := signToken(t, jwt.MapClaims{"user_id": "alice", "role": "customer"})
	w := doRequest(r, http.MethodPut, "/admin", member)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := signToken(t, jwt.MapClaims{"user_id": "root", "role": "admin"})
	w = doRequest(r, http.MethodPut, "/admin", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

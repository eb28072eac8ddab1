package api

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

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireMaster(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"master_id": c.GetInt(ctxMasterID)})
	})
	return r
}

func doAuth(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireMaster(t *testing.T) {
	r := authRouter()

	t.Run("missing header", func(t *testing.T) {
		w := doAuth(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		w := doAuth(r, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doAuth(r, "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"master_id": 7})
		w := doAuth(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"master_id": 7,
			"exp":       time.Now().Add(-time.Hour).Unix(),
		})
		w := doAuth(r, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without master claim", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"sub": "client"})
		w := doAuth(r, "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid master token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"master_id": 7,
			"exp":       time.Now().Add(time.Hour).Unix(),
		})
		w := doAuth(r, "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"master_id":7`)
	})
}

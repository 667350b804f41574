package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-api/internal/auth"
	"storefront-api/internal/models"
	"storefront-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(tokens *auth.TokenManager) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		respondOK(c, "ok", gin.H{"id": callerID(c)})
	})
	r.GET("/admin", RequireAuth(tokens), RequireAdmin(), func(c *gin.Context) {
		respondOK(c, "ok", nil)
	})
	return r
}

func TestRequireAuthMissingHeader(t *testing.T) {
	r := protectedRouter(auth.NewTokenManager("secret", time.Hour))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	r := protectedRouter(auth.NewTokenManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := protectedRouter(tokens)

	token, err := tokens.Issue(7, "user@example.com", false, auth.TokenTypeUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["id"])
}

func TestRequireAuthExpiredToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	expired := auth.NewTokenManager("secret", -time.Minute)
	r := protectedRouter(tokens)

	token, err := expired.Issue(7, "user@example.com", false, auth.TokenTypeUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := protectedRouter(tokens)

	userToken, err := tokens.Issue(7, "user@example.com", false, auth.TokenTypeUser)
	require.NoError(t, err)
	adminToken, err := tokens.Issue(1, "admin@example.com", true, auth.TokenTypeAdmin)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := gin.New()
	r.GET("/suggest", OptionalAuth(tokens), func(c *gin.Context) {
		respondOK(c, "ok", gin.H{"id": callerID(c)})
	})

	// Anonymous request passes with caller ID 0.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/suggest", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, float64(0), env.Data.(map[string]interface{})["id"])

	// A valid token attaches the caller.
	token, err := tokens.Issue(7, "user@example.com", false, auth.TokenTypeUser)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/suggest", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, float64(7), env.Data.(map[string]interface{})["id"])
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrInvalidCredentials, http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrDuplicateEmail, http.StatusConflict},
		{models.ErrDuplicatePhone, http.StatusConflict},
		{service.ErrValidation, http.StatusBadRequest},
		{models.ErrCartEmpty, http.StatusBadRequest},
		{models.ErrInvalidOTP, http.StatusBadRequest},
		{models.ErrOrderNotCancellable, http.StatusBadRequest},
		{models.ErrInvalidTransition, http.StatusBadRequest},
		{models.ErrTooManyRequests, http.StatusTooManyRequests},
		{&models.InsufficientStockError{ProductID: 1, Requested: 5, Available: 2}, http.StatusUnprocessableEntity},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)

		var env Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.False(t, env.Success)
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(1, 20, 40)
	assert.Equal(t, 2, p.TotalPages)

	p = NewPagination(1, 20, 0)
	assert.Equal(t, 0, p.TotalPages)
}

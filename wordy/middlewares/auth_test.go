package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
	"wordy/wordy/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, ok := UserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Write([]byte(strconv.Itoa(id)))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}
	h := AuthMiddleware(cfg)(http.HandlerFunc(echoUser))

	token, err := IssueToken(cfg, 42)
	require.NoError(t, err)

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "42", rr.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "UnauthorizedError")
	})

	t.Run("query token not accepted", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := IssueToken(config.Config{JWTSecret: "other"}, 42)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+other)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 42,
			"exp":     time.Now().Add(-time.Minute).Unix(),
		})
		s, err := expired.SignedString([]byte("secret"))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+s)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestSocketAuthMiddleware_AcceptsQueryToken(t *testing.T) {
	cfg := config.Config{JWTSecret: "secret"}
	h := SocketAuthMiddleware(cfg)(http.HandlerFunc(echoUser))
	token, err := IssueToken(cfg, 7)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "7", rr.Body.String())
}

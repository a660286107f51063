package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"
	"wordy/wordy/config"
	"wordy/wordy/utils/apperrors"
	httputils "wordy/wordy/utils/http"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const tokenTTL = 24 * time.Hour

// IssueToken signs an HS256 token carrying userID.
func IssueToken(cfg config.Config, userID int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates tokenStr and returns the user id it carries.
func ParseToken(cfg config.Config, tokenStr string) (int, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.Unauthorized("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperrors.Unauthorized("invalid token")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, apperrors.Unauthorized("invalid token")
	}
	return int(userID), nil
}

func bearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func authenticate(cfg config.Config, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" && allowQuery {
				tokenStr = r.URL.Query().Get("token")
			}
			if tokenStr == "" {
				httputils.WriteError(w, apperrors.Unauthorized("unauthorized"), false)
				return
			}
			userID, err := ParseToken(cfg, tokenStr)
			if err != nil {
				httputils.WriteError(w, err, false)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthMiddleware requires a bearer token.
func AuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return authenticate(cfg, false)
}

// SocketAuthMiddleware also accepts ?token= since browsers cannot set
// headers on a WebSocket handshake.
func SocketAuthMiddleware(cfg config.Config) func(http.Handler) http.Handler {
	return authenticate(cfg, true)
}

// UserID returns the authenticated user of the request.
func UserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}

package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/utils"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// SessionClaims is the bearer token payload: the session key that scopes
// every cache entry, plus the registered claims.
type SessionClaims struct {
	SessionKey string `json:"sessionKey"`
	jwt.RegisteredClaims
}

// Authenticate requires a valid bearer token and a live session record. The
// resolved models.Session lands on the request context.
func (m *Middlewares) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.resolveSession(r)
		if err != nil {
			utils.BuildErrorResponse(m.Log, w, err)
			return
		}

		ctx := context.WithValue(r.Context(), constvars.ContextSession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionOptional resolves a session when a token is present and valid, and
// lets anonymous callers through with none; they only reach the static
// instrument list.
func (m *Middlewares) SessionOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.resolveSession(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), constvars.ContextSession, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middlewares) resolveSession(r *http.Request) (*models.Session, error) {
	authorization := r.Header.Get(constvars.HeaderAuthorization)
	if authorization == "" {
		return nil, exceptions.ErrTokenMissing(nil)
	}
	tokenString := strings.TrimPrefix(authorization, "Bearer ")
	if tokenString == authorization || tokenString == "" {
		return nil, exceptions.ErrTokenMissing(nil)
	}

	claims := new(SessionClaims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.InternalConfig.JWT.Secret), nil
	})
	if err != nil || !token.Valid || claims.SessionKey == "" {
		return nil, exceptions.ErrTokenInvalidOrExpired(err)
	}

	sessionData, err := m.SessionService.GetSessionData(r.Context(), claims.SessionKey)
	if err != nil {
		return nil, err
	}
	if sessionData == "" {
		return nil, exceptions.ErrSessionNotFound(nil)
	}

	session, err := m.SessionService.ParseSessionData(r.Context(), sessionData)
	if err != nil {
		return nil, err
	}
	session.SessionKey = claims.SessionKey
	return session, nil
}

// SessionFromContext pulls the resolved session out of the request context.
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(constvars.ContextSession).(*models.Session)
	return session, ok
}

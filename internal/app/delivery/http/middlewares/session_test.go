package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"screening-service/internal/app/config"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

type fakeSessionService struct {
	records map[string]string
}

func (f *fakeSessionService) GetSessionData(_ context.Context, sessionKey string) (string, error) {
	record, ok := f.records[sessionKey]
	if !ok {
		return "", exceptions.ErrSessionNotFound(nil)
	}
	return record, nil
}

func (f *fakeSessionService) ParseSessionData(_ context.Context, sessionData string) (*models.Session, error) {
	session := new(models.Session)
	if err := json.Unmarshal([]byte(sessionData), session); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return session, nil
}

func signedToken(t *testing.T, sessionKey string, expiresIn time.Duration) string {
	t.Helper()
	claims := SessionClaims{
		SessionKey: sessionKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return token
}

func newTestMiddlewares(records map[string]string) *Middlewares {
	cfg := &config.InternalConfig{}
	cfg.JWT.Secret = testSecret
	return NewMiddlewares(zap.NewNop(), &fakeSessionService{records: records}, cfg)
}

func sessionEcho(t *testing.T, captured **models.Session) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := SessionFromContext(r.Context()); ok {
			*captured = session
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	records := map[string]string{
		"sess-1": `{"user_id":"user-1","patient_id":"patient-1"}`,
	}

	t.Run("ValidTokenLoadsSession", func(t *testing.T) {
		var captured *models.Session
		m := newTestMiddlewares(records)
		handler := m.Authenticate(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "sess-1", time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, captured)
		assert.Equal(t, "sess-1", captured.SessionKey)
		assert.Equal(t, "patient-1", captured.PatientID)
	})

	t.Run("MissingTokenRejected", func(t *testing.T) {
		var captured *models.Session
		m := newTestMiddlewares(records)
		handler := m.Authenticate(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("ExpiredTokenRejected", func(t *testing.T) {
		var captured *models.Session
		m := newTestMiddlewares(records)
		handler := m.Authenticate(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "sess-1", -time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownSessionRejected", func(t *testing.T) {
		m := newTestMiddlewares(records)
		var captured *models.Session
		handler := m.Authenticate(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "sess-gone", time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessionOptional(t *testing.T) {
	records := map[string]string{
		"sess-1": `{"user_id":"user-1","patient_id":"patient-1"}`,
	}

	t.Run("AnonymousCallerPassesThrough", func(t *testing.T) {
		var captured *models.Session
		m := newTestMiddlewares(records)
		handler := m.SessionOptional(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("ValidTokenStillLoadsSession", func(t *testing.T) {
		var captured *models.Session
		m := newTestMiddlewares(records)
		handler := m.SessionOptional(sessionEcho(t, &captured))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "sess-1", time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, captured)
	})
}

func TestNoCache(t *testing.T) {
	m := newTestMiddlewares(nil)
	handler := m.NoCache(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

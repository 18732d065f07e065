package session

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/app/services/shared/sessioncache"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
)

type sessionService struct {
	SessionCache contracts.SessionCache
}

func NewSessionService(sessionCache contracts.SessionCache) contracts.SessionService {
	return &sessionService{
		SessionCache: sessionCache,
	}
}

func (svc *sessionService) GetSessionData(ctx context.Context, sessionKey string) (string, error) {
	sessionData, err := svc.SessionCache.Get(ctx, sessioncache.ResourceKey(constvars.CacheSessionRecordPrefix, sessionKey))
	if err != nil {
		return "", exceptions.ErrSessionNotFound(err)
	}
	return sessionData, nil
}

func (svc *sessionService) ParseSessionData(ctx context.Context, sessionData string) (*models.Session, error) {
	session := new(models.Session)
	err := json.Unmarshal([]byte(sessionData), session)
	if err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return session, nil
}

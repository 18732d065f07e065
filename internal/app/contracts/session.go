package contracts

import (
	"context"
	"screening-service/internal/app/models"
)

type SessionService interface {
	GetSessionData(ctx context.Context, sessionKey string) (string, error)
	ParseSessionData(ctx context.Context, sessionData string) (*models.Session, error)
}

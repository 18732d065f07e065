package registry

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type artifactRegistry struct {
	Store       ArtifactStore
	Catalog     contracts.ArtifactCatalog
	Logger      *zap.Logger
	instruments []string
	registered  map[string]struct{}
}

// NewArtifactRegistry builds the resolver for the supported instrument set.
// Instruments named at construction resolve against the object store; any
// other identifier falls through to the remote catalog.
func NewArtifactRegistry(store ArtifactStore, catalog contracts.ArtifactCatalog, instruments []string, logger *zap.Logger) contracts.ArtifactRegistry {
	registered := make(map[string]struct{}, len(instruments))
	for _, instrumentID := range instruments {
		registered[instrumentID] = struct{}{}
	}
	return &artifactRegistry{
		Store:       store,
		Catalog:     catalog,
		Logger:      logger,
		instruments: instruments,
		registered:  registered,
	}
}

func (r *artifactRegistry) RegisteredInstruments() []string {
	out := make([]string, len(r.instruments))
	copy(out, r.instruments)
	return out
}

func (r *artifactRegistry) QuestionnaireJSON(ctx context.Context, instrumentID string) (json.RawMessage, error) {
	return r.resolve(ctx, constvars.ArtifactKindQuestionnaire, instrumentID)
}

func (r *artifactRegistry) LogicLibraryJSON(ctx context.Context, libraryName string) (json.RawMessage, error) {
	return r.resolve(ctx, constvars.ArtifactKindLogicLibrary, libraryName)
}

func (r *artifactRegistry) ValueSetJSON(ctx context.Context) (json.RawMessage, error) {
	return r.resolve(ctx, constvars.ArtifactKindValueSet, constvars.ValueSetObjectName)
}

func (r *artifactRegistry) resolve(ctx context.Context, kind, name string) (json.RawMessage, error) {
	if _, ok := r.registered[name]; ok || kind != constvars.ArtifactKindQuestionnaire {
		content, err := r.Store.GetArtifactObject(ctx, kind, name)
		if err == nil {
			return content, nil
		}
		r.Logger.Warn("artifact not in object store, trying remote catalog",
			zap.String("kind", kind),
			zap.String("name", name),
			zap.Error(err))
	}

	content, err := r.Catalog.FindArtifact(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, exceptions.ErrInstrumentNotRegistered(nil, name)
	}
	return content, nil
}

package contracts

import (
	"context"

	"github.com/goccy/go-json"
)

// ArtifactRegistry resolves instrument and project identifiers to their JSON
// artifacts. The supported set is enumerable at startup; unknown identifiers
// fall through to a remote catalog lookup.
type ArtifactRegistry interface {
	QuestionnaireJSON(ctx context.Context, instrumentID string) (json.RawMessage, error)
	LogicLibraryJSON(ctx context.Context, libraryName string) (json.RawMessage, error)
	ValueSetJSON(ctx context.Context) (json.RawMessage, error)
	RegisteredInstruments() []string
}

// ArtifactCatalog is the remote fallback behind the registry. A miss is
// recoverable for auxiliary instruments, fatal for the configured default.
type ArtifactCatalog interface {
	FindArtifact(ctx context.Context, kind, artifactID string) (json.RawMessage, error)
}

package contracts

import (
	"context"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
)

// CqlEvaluator is the rule-evaluation engine contract. The engine is
// stateful: Initialize must complete before SubmitBundle, and SubmitBundle
// before any Evaluate. Evaluate calls against a submitted bundle are pure
// reads and may run concurrently.
type CqlEvaluator interface {
	Initialize(ctx context.Context, library, valueSets json.RawMessage, parameters map[string]interface{}) error
	SubmitBundle(ctx context.Context, bundle *fhir_dto.FHIRBundle) error
	Evaluate(ctx context.Context, expression string) (*models.EvaluationResult, error)
}

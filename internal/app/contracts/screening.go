package contracts

import (
	"context"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/dto/requests"
	"screening-service/internal/pkg/dto/responses"
	"screening-service/internal/pkg/fhir_dto"
)

// ResourceFetcher memoizes the static clinical resources for one session.
type ResourceFetcher interface {
	FetchClinicalBundle(ctx context.Context, session *models.Session, patientID string) (*fhir_dto.FHIRBundle, error)
	// FetchQuestionnaireResponses never consults the cache; a transport
	// failure degrades to "no responses", not an error.
	FetchQuestionnaireResponses(ctx context.Context, patientID string) []fhir_dto.QuestionnaireResponse
}

// CarePlanOrchestrator runs the full synthesis pipeline: artifacts, bundle,
// engine evaluation, activity mapping, persistence.
type CarePlanOrchestrator interface {
	SynthesizeCarePlan(ctx context.Context, session *models.Session, patientID, projectID string) (*fhir_dto.CarePlan, error)
}

// InstrumentScheduler decides which instruments are due and tracks the ones
// already administered this session.
type InstrumentScheduler interface {
	GetDueInstruments(ctx context.Context, session *models.Session, patientID string, carePlan *fhir_dto.CarePlan) ([]string, error)
	MarkAdministered(ctx context.Context, session *models.Session, instrumentID string) error
	GetAdministered(ctx context.Context, session *models.Session) ([]string, error)
}

type ScreeningUsecase interface {
	GetNextInstruments(ctx context.Context, session *models.Session) (*responses.DueInstruments, error)
	GetScreeningArtifacts(ctx context.Context, session *models.Session) ([]responses.ScreeningArtifacts, error)
	ApplyPlanDefinition(ctx context.Context, session *models.Session, request *requests.ApplyPlanDefinition) (*fhir_dto.CarePlan, error)
	MarkInstrumentAdministered(ctx context.Context, session *models.Session, request *requests.MarkAdministered) error
}

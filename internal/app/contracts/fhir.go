package contracts

import (
	"context"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
)

type PatientFhirClient interface {
	FindPatientByID(ctx context.Context, patientID string) (json.RawMessage, error)
}

type QuestionnaireFhirClient interface {
	FindQuestionnaires(ctx context.Context) (json.RawMessage, error)
	FindQuestionnaireByID(ctx context.Context, questionnaireID string) (*fhir_dto.Questionnaire, error)
}

type ConditionFhirClient interface {
	FindConditionsByPatientID(ctx context.Context, patientID string) (json.RawMessage, error)
}

type QuestionnaireResponseFhirClient interface {
	// FindResponsesByPatientID always bypasses intermediary caches; stale
	// responses would corrupt due/not-due decisions.
	FindResponsesByPatientID(ctx context.Context, patientID string) ([]fhir_dto.QuestionnaireResponse, error)
}

type CarePlanFhirClient interface {
	FindQuestionnaireCarePlan(ctx context.Context, patientID string) (*fhir_dto.CarePlan, error)
	CreateCarePlan(ctx context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error)
	UpdateCarePlan(ctx context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error)
}

type PlanDefinitionFhirClient interface {
	FindPlanDefinitionByID(ctx context.Context, planDefinitionID string) (*fhir_dto.PlanDefinition, error)
}

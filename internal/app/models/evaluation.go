package models

import "screening-service/internal/pkg/fhir_dto"

// EvaluationResult is the outcome of evaluating one applicability expression
// against the submitted patient bundle. A nil result means the expression
// produced nothing and no activity is derived from it.
type EvaluationResult struct {
	QuestionnaireID string           `json:"questionnaireId"`
	Status          string           `json:"status,omitempty"`
	ScheduledTiming *fhir_dto.Timing `json:"scheduledTiming,omitempty"`
}

// ScheduledInstrument pairs a candidate instrument with the schedule its
// care-plan activity carries.
type ScheduledInstrument struct {
	InstrumentID string
	Schedule     *fhir_dto.Timing
}

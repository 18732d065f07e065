package requests

type MarkAdministered struct {
	InstrumentID string `json:"instrument_id" validate:"required,min=1,max=128"`
}

type ApplyPlanDefinition struct {
	PatientID string `json:"patient_id" validate:"required,min=1,max=64"`
	ProjectID string `json:"project_id,omitempty" validate:"omitempty,max=64"`
}

package fhir_dto

type CarePlan struct {
	ResourceType string             `json:"resourceType"`
	ID           string             `json:"id,omitempty"`
	Meta         *Meta              `json:"meta,omitempty"`
	Status       string             `json:"status"`
	Intent       string             `json:"intent"`
	Category     []CodeableConcept  `json:"category,omitempty"`
	Subject      Reference          `json:"subject"`
	Period       *Period            `json:"period,omitempty"`
	Activity     []CarePlanActivity `json:"activity,omitempty"`
	Note         []Annotation       `json:"note,omitempty"`
}

type CarePlanActivity struct {
	Detail *CarePlanActivityDetail `json:"detail,omitempty"`
}

type CarePlanActivityDetail struct {
	InstantiatesCanonical []string `json:"instantiatesCanonical,omitempty"`
	Status                string   `json:"status,omitempty"`
	ScheduledTiming       *Timing  `json:"scheduledTiming,omitempty"`
}

package fhir_dto

type PlanDefinition struct {
	ResourceType string                 `json:"resourceType"`
	ID           string                 `json:"id,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Title        string                 `json:"title,omitempty"`
	Status       string                 `json:"status,omitempty"`
	Action       []PlanDefinitionAction `json:"action,omitempty"`
}

type PlanDefinitionAction struct {
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	Condition   []PlanDefinitionCondition `json:"condition,omitempty"`
	Action      []PlanDefinitionAction    `json:"action,omitempty"`
}

type PlanDefinitionCondition struct {
	Kind       string      `json:"kind,omitempty"`
	Expression *Expression `json:"expression,omitempty"`
}

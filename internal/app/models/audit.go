package models

// AuditEvent mirrors the screener audit payload: level, tags, deployment,
// and a free-form message body.
type AuditEvent struct {
	ID         string                 `json:"id"`
	Level      string                 `json:"level"`
	Tags       []string               `json:"tags"`
	SystemURL  string                 `json:"systemURL,omitempty"`
	Deployment string                 `json:"deployment,omitempty"`
	Subject    string                 `json:"subject,omitempty"`
	Message    map[string]interface{} `json:"message"`
}

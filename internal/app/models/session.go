package models

import "time"

// Session is the authenticated client interaction scoping every cache entry.
// SessionKey rotates on login/logout; rotation is what invalidates the
// per-session scheduling state.
type Session struct {
	SessionKey string    `json:"session_key"`
	UserID     string    `json:"user_id,omitempty"`
	PatientID  string    `json:"patient_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

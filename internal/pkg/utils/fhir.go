package utils

import (
	"screening-service/internal/pkg/constvars"
	"strings"
)

// ExtractInstrumentID pulls the instrument identifier out of a canonical
// reference such as "Questionnaire/PHQ9" or a full URL ending in the same
// path segment. Returns the input unchanged when no path separator exists.
func ExtractInstrumentID(canonical string) string {
	canonical = strings.TrimSpace(canonical)
	if canonical == "" {
		return ""
	}
	idx := strings.LastIndex(canonical, "/")
	if idx < 0 {
		return canonical
	}
	return canonical[idx+1:]
}

func BuildPatientReference(patientID string) string {
	return constvars.FhirPatientReferencePrefix + patientID
}

func BuildInstrumentCanonical(instrumentID string) string {
	return constvars.FhirQuestionnaireCanonicalPrefix + instrumentID
}

// ReferenceMatchesInstrument reports whether a questionnaire reference refers
// to the given instrument id, ignoring case. Canonical path casings differ
// between servers, so containment is checked case-insensitively.
func ReferenceMatchesInstrument(reference, instrumentID string) bool {
	if reference == "" || instrumentID == "" {
		return false
	}
	return strings.Contains(strings.ToLower(reference), strings.ToLower(instrumentID))
}

// ParseInstrumentList splits a comma-separated instrument list, trimming
// whitespace and dropping empty segments while preserving order.
func ParseInstrumentList(raw string) []string {
	parts := strings.Split(raw, ",")
	instruments := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			instruments = append(instruments, trimmed)
		}
	}
	return instruments
}

package constvars

// Session cache key prefixes. Keys are composed as {prefix}_{sessionKey} for
// session-wide resources, or {sessionKey}_{suffix} for per-session state, so
// ClearByPrefix can drop one resource generation without touching the rest.
const (
	CachePrefixFhirResources  = "fhir_resources"
	CachePrefixLogicLibrary   = "CirgLibraryQuestionnaireLogic"
	CachePrefixPlanDefinition = "CIRG-PlanDefinition"

	CacheSuffixScheduledInstruments    = "scheduled_instruments"
	CacheSuffixAdministeredInstruments = "administered_instruments"

	CacheKeySeparator = "_"
)

const (
	CacheSessionRecordPrefix = "screening_session"
)

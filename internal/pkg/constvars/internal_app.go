package constvars

type ContextKey string

const (
	ContextSession   ContextKey = "screeningSession"
	ContextRequestID ContextKey = "requestID"
)

const (
	URLParamInstrumentID = "instrumentID"
)

// Structured logging field names.
const (
	LoggingRequestIDKey  = "requestID"
	LoggingSessionKeyKey = "sessionKey"
	LoggingPatientIDKey  = "patientID"
)

// Artifact kinds stored in the object store / remote catalog.
const (
	ArtifactKindQuestionnaire = "questionnaires"
	ArtifactKindLogicLibrary  = "libraries"
	ArtifactKindValueSet      = "valuesets"

	ArtifactObjectFormat = "%s/%s.json"
	ValueSetObjectName   = "valueset-db"
)

const (
	MongoCollectionArtifacts = "artifacts"
)

// Audit log tags, mirroring the screener front-end payloads.
const (
	AuditTagScreening    = "screening-service"
	AuditTagInstrument   = "instrumentIssued"
	AuditTagAdministered = "instrumentAdministered"
	AuditTagCarePlan     = "carePlanSynthesized"
)

package constvars

// Validation messages mapper
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s characters long",
	"max":      "maximum at %s characters long",
	"oneof":    "must be one of [%s]",
	"alphanum": "must contain only alphanumeric characters",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotLoggedIn                   = "your session ended, please login again"
	ErrClientScreeningNotConfigured        = "screening is not configured for this project"
	ErrClientScreeningDataUnavailable      = "unable to retrieve your clinical records"
	ErrClientScreeningArtifactMissing      = "the requested screening instrument is not available"
	ErrClientScreeningEvaluationFailed     = "unable to determine which screenings are due"
	ErrClientCarePlanNotSaved              = "your screening plan could not be saved"
)

// Error messages for developers
const (
	ErrDevCannotParseJSON      = "cannot parse JSON into struct or other data types"
	ErrDevCannotMarshalJSON    = "cannot convert struct or other data types to JSON"
	ErrDevValidationFailed     = "request validation failed"
	ErrDevCreateHTTPRequest    = "failed to create HTTP request object"
	ErrDevSendHTTPRequest      = "failed to send HTTP request"
	ErrDevDecodeResponse       = "failed to decode %s response body"
	ErrDevServerDeadline       = "server deadline exceeded while processing request"
	ErrDevAuthTokenMissing     = "authorization token is missing from the request"
	ErrDevAuthTokenInvalid     = "authorization token is invalid or expired"
	ErrDevSessionNotFound      = "no session record found for the presented token"
	ErrDevRedisGetData         = "failed to get data from redis"
	ErrDevRedisSetData         = "failed to set data to redis"
	ErrDevRedisDeleteData      = "failed to delete data from redis"
	ErrDevRedisScanKeys        = "failed to scan redis keys by prefix"
	ErrDevRedisPushToList      = "failed to right-push value to redis list"
	ErrDevRedisGetList         = "failed to read redis list values"
	ErrDevMinioGetObject       = "failed to get object %q from bucket %q"
	ErrDevMongoFindDocument    = "failed to find document in mongo collection"
	ErrDevRabbitMQPublish      = "failed to publish message to queue %q"
	ErrDevProjectIDEmpty       = "a valid project ID must be supplied for a plan definition"
	ErrDevInstrumentUnknown    = "no artifact loader registered for instrument %q"
	ErrDevPlanDefinitionAbsent = "no plan definition resolves for project %q"
	ErrDevLogicLibraryAbsent   = "no logic library resolves for project %q"
	ErrDevFetchFHIRResource    = "failed to fetch %s from FHIR server"
	ErrDevCreateFHIRResource   = "failed to create %s on FHIR server"
	ErrDevUpdateFHIRResource   = "failed to update %s on FHIR server"
	ErrDevEvaluateExpression   = "rule engine failed evaluating expression %q"
	ErrDevEngineOrdering       = "engine message rejected: %s"
	ErrDevCacheWriteSkipped    = "session cache write failed, continuing without cached copy"
)

package constvars

const (
	ResourcePatient               = "Patient"
	ResourceCondition             = "Condition"
	ResourceQuestionnaire         = "Questionnaire"
	ResourceQuestionnaireResponse = "QuestionnaireResponse"
	ResourceCarePlan              = "CarePlan"
	ResourcePlanDefinition        = "PlanDefinition"
	ResourceBundle                = "Bundle"
)

const (
	FhirCarePlanStatusActive    = "active"
	FhirCarePlanIntentOrder     = "order"
	FhirActivityStatusScheduled = "scheduled"

	FhirQuestionnaireResponseStatusCompleted = "completed"

	FhirBundleTypeCollection = "collection"
)

// SNOMED coding used for the questionnaire care-plan category, matching the
// category:text filter on lookups.
const (
	FhirSnomedSystem                  = "http://snomed.info/sct"
	FhirQuestionnaireCategoryCode     = "719091000000102"
	FhirQuestionnaireCategoryDisplay  = "Questionnaire"
	FhirQuestionnaireCategoryText     = "questionnaire"
	FhirQuestionnaireCanonicalPrefix  = "Questionnaire/"
	FhirPatientReferencePrefix        = "Patient/"
	FhirPlanDefinitionIDFormat        = "CIRG-PlanDefinition-%s"
	FhirQuestionnaireLogicNameFormat  = "CirgLibraryQuestionnaireLogic_%s"
	FhirCarePlanQuestionnaireQuery    = "?subject=Patient/%s&category:text=questionnaire&_sort=-_lastUpdated"
	FhirQuestionnaireResponsesByQuery = "?patient=%s"
	FhirConditionsByPatientQuery      = "?patient=%s"
)

const (
	CqlExpressionLanguage = "text/cql"
	CqlConditionKind      = "applicability"
)

// Timing repeat period units and their hour factors. Month uses a 30-day
// approximation.
const (
	PeriodUnitHour  = "h"
	PeriodUnitDay   = "d"
	PeriodUnitWeek  = "wk"
	PeriodUnitMonth = "mo"

	HoursPerDay   = 24
	HoursPerWeek  = 168
	HoursPerMonth = 720
)

const (
	DefaultScheduleFrequency  = 1
	DefaultSchedulePeriod     = 1
	DefaultSchedulePeriodUnit = PeriodUnitDay
)

package careplans

import (
	"context"
	"fmt"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/app/services/shared/sessioncache"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"
	"screening-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type carePlanOrchestratorUsecase struct {
	SessionCache             contracts.SessionCache
	ResourceFetcher          contracts.ResourceFetcher
	Registry                 contracts.ArtifactRegistry
	PlanDefinitionFhirClient contracts.PlanDefinitionFhirClient
	CarePlanFhirClient       contracts.CarePlanFhirClient
	Evaluator                contracts.CqlEvaluator
	AuditLog                 contracts.AuditLogPublisher
	Log                      *zap.Logger
}

func NewCarePlanOrchestratorUsecase(
	sessionCache contracts.SessionCache,
	resourceFetcher contracts.ResourceFetcher,
	registry contracts.ArtifactRegistry,
	planDefinitionFhirClient contracts.PlanDefinitionFhirClient,
	carePlanFhirClient contracts.CarePlanFhirClient,
	evaluator contracts.CqlEvaluator,
	auditLog contracts.AuditLogPublisher,
	logger *zap.Logger,
) contracts.CarePlanOrchestrator {
	return &carePlanOrchestratorUsecase{
		SessionCache:             sessionCache,
		ResourceFetcher:          resourceFetcher,
		Registry:                 registry,
		PlanDefinitionFhirClient: planDefinitionFhirClient,
		CarePlanFhirClient:       carePlanFhirClient,
		Evaluator:                evaluator,
		AuditLog:                 auditLog,
		Log:                      logger,
	}
}

// SynthesizeCarePlan runs one full evaluation pass: artifacts, patient
// bundle, engine evaluation, activity mapping, persistence. Stages run in
// order and the first failure aborts the pass, except persistence: a plan
// that fails to persist is still returned alongside the error so scheduling
// can proceed best-effort.
func (uc *carePlanOrchestratorUsecase) SynthesizeCarePlan(ctx context.Context, session *models.Session, patientID, projectID string) (*fhir_dto.CarePlan, error) {
	if projectID == "" {
		return nil, exceptions.ErrScreeningConfiguration(nil)
	}

	uc.Log.Info("care plan synthesis: loading artifacts",
		zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
		zap.String("projectID", projectID))

	logicLibrary, err := uc.loadLogicLibrary(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	planDefinition, err := uc.loadPlanDefinition(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	valueSets, err := uc.Registry.ValueSetJSON(ctx)
	if err != nil {
		return nil, err
	}

	uc.Log.Info("care plan synthesis: assembling patient bundle",
		zap.String(constvars.LoggingSessionKeyKey, session.SessionKey))

	clinicalBundle, err := uc.ResourceFetcher.FetchClinicalBundle(ctx, session, patientID)
	if err != nil {
		return nil, err
	}
	patientBundle := mergePatientBundle(clinicalBundle, uc.ResourceFetcher.FetchQuestionnaireResponses(ctx, patientID))

	uc.Log.Info("care plan synthesis: evaluating expressions",
		zap.String(constvars.LoggingSessionKeyKey, session.SessionKey))

	if err := uc.Evaluator.Initialize(ctx, logicLibrary, valueSets, nil); err != nil {
		return nil, err
	}
	if err := uc.Evaluator.SubmitBundle(ctx, patientBundle); err != nil {
		return nil, err
	}

	results, err := uc.evaluateActions(ctx, planDefinition)
	if err != nil {
		return nil, err
	}

	activities := buildActivities(results)

	uc.Log.Info("care plan synthesis: persisting plan",
		zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
		zap.Int("activities", len(activities)))

	carePlan, persistErr := uc.persist(ctx, patientID, activities)

	uc.publishAudit(ctx, session, patientID, len(activities), persistErr == nil)

	return carePlan, persistErr
}

func (uc *carePlanOrchestratorUsecase) loadLogicLibrary(ctx context.Context, session *models.Session, projectID string) (json.RawMessage, error) {
	cacheKey := sessioncache.ResourceKey(constvars.CachePrefixLogicLibrary, session.SessionKey)
	if cached, err := uc.SessionCache.Get(ctx, cacheKey); err == nil && cached != "" {
		return json.RawMessage(cached), nil
	}

	libraryName := fmt.Sprintf(constvars.FhirQuestionnaireLogicNameFormat, projectID)
	logicLibrary, err := uc.Registry.LogicLibraryJSON(ctx, libraryName)
	if err != nil {
		return nil, exceptions.ErrMissingLogicLibrary(err, projectID)
	}

	uc.recache(ctx, constvars.CachePrefixLogicLibrary, cacheKey, string(logicLibrary))
	return logicLibrary, nil
}

func (uc *carePlanOrchestratorUsecase) loadPlanDefinition(ctx context.Context, session *models.Session, projectID string) (*fhir_dto.PlanDefinition, error) {
	cacheKey := sessioncache.ResourceKey(constvars.CachePrefixPlanDefinition, session.SessionKey)
	if cached, err := uc.SessionCache.Get(ctx, cacheKey); err == nil && cached != "" {
		planDefinition := new(fhir_dto.PlanDefinition)
		if err := json.Unmarshal([]byte(cached), planDefinition); err == nil {
			return planDefinition, nil
		}
	}

	planDefinitionID := fmt.Sprintf(constvars.FhirPlanDefinitionIDFormat, projectID)
	planDefinition, err := uc.PlanDefinitionFhirClient.FindPlanDefinitionByID(ctx, planDefinitionID)
	if err != nil || planDefinition == nil {
		return nil, exceptions.ErrMissingPlanDefinition(err, projectID)
	}

	uc.recache(ctx, constvars.CachePrefixPlanDefinition, cacheKey, planDefinition)
	return planDefinition, nil
}

// recache clears the previous generation under prefix before writing. Cache
// failures are logged and swallowed; the artifact just loaded is live in
// memory regardless.
func (uc *carePlanOrchestratorUsecase) recache(ctx context.Context, prefix, key string, value interface{}) {
	if err := uc.SessionCache.ClearByPrefix(ctx, prefix); err != nil {
		uc.Log.Warn("artifact cache invalidation failed",
			zap.String("prefix", prefix),
			zap.Error(err))
		return
	}
	if err := uc.SessionCache.Set(ctx, key, value); err != nil {
		uc.Log.Warn("artifact cache write failed",
			zap.String("cacheKey", key),
			zap.Error(err))
	}
}

// evaluateActions walks the plan definition for applicability conditions in
// the supported rule language and evaluates them concurrently. All
// evaluations must complete; one failure aborts the pass naming the
// expression.
func (uc *carePlanOrchestratorUsecase) evaluateActions(ctx context.Context, planDefinition *fhir_dto.PlanDefinition) ([]*models.EvaluationResult, error) {
	expressions := collectExpressions(planDefinition.Action)
	results := make([]*models.EvaluationResult, len(expressions))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, expression := range expressions {
		i, expression := i, expression
		group.Go(func() error {
			result, err := uc.Evaluator.Evaluate(groupCtx, expression)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (uc *carePlanOrchestratorUsecase) persist(ctx context.Context, patientID string, activities []fhir_dto.CarePlanActivity) (*fhir_dto.CarePlan, error) {
	existing, err := uc.CarePlanFhirClient.FindQuestionnaireCarePlan(ctx, patientID)
	if err != nil {
		uc.Log.Warn("existing care plan lookup failed, creating a new one",
			zap.String(constvars.LoggingPatientIDKey, patientID),
			zap.Error(err))
	}

	var carePlan *fhir_dto.CarePlan
	if existing != nil {
		carePlan = existing
		carePlan.Activity = activities
		persisted, err := uc.CarePlanFhirClient.UpdateCarePlan(ctx, carePlan)
		if err != nil {
			return carePlan, exceptions.ErrPersistCarePlan(err)
		}
		return persisted, nil
	}

	carePlan = newCarePlanStub(patientID, activities)
	persisted, err := uc.CarePlanFhirClient.CreateCarePlan(ctx, carePlan)
	if err != nil {
		return carePlan, exceptions.ErrPersistCarePlan(err)
	}
	return persisted, nil
}

func (uc *carePlanOrchestratorUsecase) publishAudit(ctx context.Context, session *models.Session, patientID string, activityCount int, persisted bool) {
	event := models.AuditEvent{
		ID:      uuid.New().String(),
		Level:   "info",
		Tags:    []string{constvars.AuditTagScreening, constvars.AuditTagCarePlan},
		Subject: utils.BuildPatientReference(patientID),
		Message: map[string]interface{}{
			"sessionKey": session.SessionKey,
			"activities": activityCount,
			"persisted":  persisted,
		},
	}
	if err := uc.AuditLog.Publish(ctx, event); err != nil {
		uc.Log.Warn("audit event publish failed",
			zap.String("eventID", event.ID),
			zap.Error(err))
	}
}

func mergePatientBundle(clinicalBundle *fhir_dto.FHIRBundle, questionnaireResponses []fhir_dto.QuestionnaireResponse) *fhir_dto.FHIRBundle {
	merged := &fhir_dto.FHIRBundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.FhirBundleTypeCollection,
		Entry:        append([]fhir_dto.Entry{}, clinicalBundle.Entry...),
	}
	for _, response := range questionnaireResponses {
		raw, err := json.Marshal(response)
		if err != nil {
			continue
		}
		merged.Entry = append(merged.Entry, fhir_dto.Entry{Resource: raw})
	}
	merged.Total = len(merged.Entry)
	return merged
}

func collectExpressions(actions []fhir_dto.PlanDefinitionAction) []string {
	var expressions []string
	for _, action := range actions {
		for _, condition := range action.Condition {
			if condition.Kind != constvars.CqlConditionKind || condition.Expression == nil {
				continue
			}
			if condition.Expression.Language != constvars.CqlExpressionLanguage {
				continue
			}
			if condition.Expression.Expression != "" {
				expressions = append(expressions, condition.Expression.Expression)
			}
		}
		expressions = append(expressions, collectExpressions(action.Action)...)
	}
	return expressions
}

// buildActivities drops null evaluation results and maps the rest onto plan
// activities with scheduling defaults.
func buildActivities(results []*models.EvaluationResult) []fhir_dto.CarePlanActivity {
	activities := make([]fhir_dto.CarePlanActivity, 0, len(results))
	for _, result := range results {
		if result == nil || result.QuestionnaireID == "" {
			continue
		}
		status := result.Status
		if status == "" {
			status = constvars.FhirActivityStatusScheduled
		}
		timing := result.ScheduledTiming
		if timing == nil || timing.Repeat == nil {
			timing = &fhir_dto.Timing{Repeat: &fhir_dto.TimingRepeat{
				Frequency:  constvars.DefaultScheduleFrequency,
				Period:     constvars.DefaultSchedulePeriod,
				PeriodUnit: constvars.DefaultSchedulePeriodUnit,
			}}
		}
		activities = append(activities, fhir_dto.CarePlanActivity{
			Detail: &fhir_dto.CarePlanActivityDetail{
				InstantiatesCanonical: []string{utils.BuildInstrumentCanonical(result.QuestionnaireID)},
				Status:                status,
				ScheduledTiming:       timing,
			},
		})
	}
	return activities
}

func newCarePlanStub(patientID string, activities []fhir_dto.CarePlanActivity) *fhir_dto.CarePlan {
	return &fhir_dto.CarePlan{
		ResourceType: constvars.ResourceCarePlan,
		Status:       constvars.FhirCarePlanStatusActive,
		Intent:       constvars.FhirCarePlanIntentOrder,
		Category: []fhir_dto.CodeableConcept{{
			Coding: []fhir_dto.Coding{{
				System:  constvars.FhirSnomedSystem,
				Code:    constvars.FhirQuestionnaireCategoryCode,
				Display: constvars.FhirQuestionnaireCategoryDisplay,
			}},
			Text: constvars.FhirQuestionnaireCategoryText,
		}},
		Subject: fhir_dto.Reference{
			Reference: utils.BuildPatientReference(patientID),
		},
		Activity: activities,
	}
}

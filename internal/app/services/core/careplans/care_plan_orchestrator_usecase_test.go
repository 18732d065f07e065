package careplans

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"screening-service/internal/app/models"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSessionCache struct {
	entries map[string]string
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: map[string]string{}}
}

func (f *fakeSessionCache) Get(_ context.Context, key string) (string, error) {
	return f.entries[key], nil
}

func (f *fakeSessionCache) Set(_ context.Context, key string, value interface{}) error {
	if s, ok := value.(string); ok {
		f.entries[key] = s
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = string(encoded)
	return nil
}

func (f *fakeSessionCache) Delete(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeSessionCache) ClearByPrefix(_ context.Context, prefix string) error {
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

func (f *fakeSessionCache) PushToList(_ context.Context, _ string, _ ...interface{}) error {
	return nil
}

func (f *fakeSessionCache) GetList(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

type fakeResourceFetcher struct {
	bundle    *fhir_dto.FHIRBundle
	responses []fhir_dto.QuestionnaireResponse
	err       error
}

func (f *fakeResourceFetcher) FetchClinicalBundle(_ context.Context, _ *models.Session, _ string) (*fhir_dto.FHIRBundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

func (f *fakeResourceFetcher) FetchQuestionnaireResponses(_ context.Context, _ string) []fhir_dto.QuestionnaireResponse {
	return f.responses
}

type fakeRegistry struct {
	libraryErr error
}

func (f *fakeRegistry) QuestionnaireJSON(_ context.Context, instrumentID string) (json.RawMessage, error) {
	return json.RawMessage(`{"resourceType":"Questionnaire","id":"` + instrumentID + `"}`), nil
}

func (f *fakeRegistry) LogicLibraryJSON(_ context.Context, _ string) (json.RawMessage, error) {
	if f.libraryErr != nil {
		return nil, f.libraryErr
	}
	return json.RawMessage(`{"library":{}}`), nil
}

func (f *fakeRegistry) ValueSetJSON(_ context.Context) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (f *fakeRegistry) RegisteredInstruments() []string {
	return []string{"phq-9"}
}

type fakePlanDefinitionClient struct {
	planDefinition *fhir_dto.PlanDefinition
	err            error
	requestedID    string
}

func (f *fakePlanDefinitionClient) FindPlanDefinitionByID(_ context.Context, planDefinitionID string) (*fhir_dto.PlanDefinition, error) {
	f.requestedID = planDefinitionID
	return f.planDefinition, f.err
}

type fakeCarePlanClient struct {
	existing  *fhir_dto.CarePlan
	created   *fhir_dto.CarePlan
	updated   *fhir_dto.CarePlan
	createErr error
	updateErr error
}

func (f *fakeCarePlanClient) FindQuestionnaireCarePlan(_ context.Context, _ string) (*fhir_dto.CarePlan, error) {
	return f.existing, nil
}

func (f *fakeCarePlanClient) CreateCarePlan(_ context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = carePlan
	return carePlan, nil
}

func (f *fakeCarePlanClient) UpdateCarePlan(_ context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = carePlan
	return carePlan, nil
}

// fakeEvaluator records the order of engine message kinds and serves
// per-expression scripted results.
type fakeEvaluator struct {
	mu          sync.Mutex
	callOrder   []string
	results     map[string]*models.EvaluationResult
	evaluateErr map[string]error
}

func newFakeEvaluator() *fakeEvaluator {
	return &fakeEvaluator{
		results:     map[string]*models.EvaluationResult{},
		evaluateErr: map[string]error{},
	}
}

func (f *fakeEvaluator) Initialize(_ context.Context, _, _ json.RawMessage, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callOrder = append(f.callOrder, "initialize")
	return nil
}

func (f *fakeEvaluator) SubmitBundle(_ context.Context, _ *fhir_dto.FHIRBundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callOrder = append(f.callOrder, "bundle")
	return nil
}

func (f *fakeEvaluator) Evaluate(_ context.Context, expression string) (*models.EvaluationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callOrder = append(f.callOrder, "evaluate")
	if err, ok := f.evaluateErr[expression]; ok {
		return nil, err
	}
	return f.results[expression], nil
}

type fakeAuditLog struct {
	events []models.AuditEvent
}

func (f *fakeAuditLog) Publish(_ context.Context, event models.AuditEvent) error {
	f.events = append(f.events, event)
	return nil
}

func planDefinitionWith(expressions ...string) *fhir_dto.PlanDefinition {
	actions := make([]fhir_dto.PlanDefinitionAction, 0, len(expressions))
	for _, expression := range expressions {
		actions = append(actions, fhir_dto.PlanDefinitionAction{
			Condition: []fhir_dto.PlanDefinitionCondition{{
				Kind: constvars.CqlConditionKind,
				Expression: &fhir_dto.Expression{
					Language:   constvars.CqlExpressionLanguage,
					Expression: expression,
				},
			}},
		})
	}
	return &fhir_dto.PlanDefinition{ResourceType: "PlanDefinition", Action: actions}
}

type orchestratorFixture struct {
	cache     *fakeSessionCache
	fetcher   *fakeResourceFetcher
	registry  *fakeRegistry
	planDef   *fakePlanDefinitionClient
	carePlans *fakeCarePlanClient
	evaluator *fakeEvaluator
	audit     *fakeAuditLog
	usecase   *carePlanOrchestratorUsecase
	session   *models.Session
}

func newFixture() *orchestratorFixture {
	fx := &orchestratorFixture{
		cache: newFakeSessionCache(),
		fetcher: &fakeResourceFetcher{
			bundle: &fhir_dto.FHIRBundle{ResourceType: "Bundle", Entry: []fhir_dto.Entry{
				{Resource: json.RawMessage(`{"resourceType":"Patient","id":"patient-1"}`)},
			}},
		},
		registry:  &fakeRegistry{},
		planDef:   &fakePlanDefinitionClient{planDefinition: planDefinitionWith("PHQ9Applicable")},
		carePlans: &fakeCarePlanClient{},
		evaluator: newFakeEvaluator(),
		audit:     &fakeAuditLog{},
		session:   &models.Session{SessionKey: "sess-1"},
	}
	fx.usecase = NewCarePlanOrchestratorUsecase(
		fx.cache, fx.fetcher, fx.registry, fx.planDef, fx.carePlans,
		fx.evaluator, fx.audit, zap.NewNop(),
	).(*carePlanOrchestratorUsecase)
	return fx
}

func TestSynthesizeCarePlan(t *testing.T) {
	t.Run("EmptyProjectIDFailsFast", func(t *testing.T) {
		fx := newFixture()
		_, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "")
		assert.Error(t, err)
		assert.Empty(t, fx.evaluator.callOrder)
	})

	t.Run("MissingPlanDefinitionFails", func(t *testing.T) {
		fx := newFixture()
		fx.planDef.planDefinition = nil
		_, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.Error(t, err)
	})

	t.Run("PlanDefinitionIDDerivedFromProject", func(t *testing.T) {
		fx := newFixture()
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}
		_, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		assert.Equal(t, "CIRG-PlanDefinition-proj-1", fx.planDef.requestedID)
	})

	t.Run("EngineMessagesKeepKindOrder", func(t *testing.T) {
		fx := newFixture()
		fx.planDef.planDefinition = planDefinitionWith("PHQ9Applicable", "AuditCApplicable")
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}
		_, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)

		order := fx.evaluator.callOrder
		assert.GreaterOrEqual(t, len(order), 4)
		assert.Equal(t, "initialize", order[0])
		assert.Equal(t, "bundle", order[1])
		for _, kind := range order[2:] {
			assert.Equal(t, "evaluate", kind)
		}
	})

	t.Run("NullResultsAreFiltered", func(t *testing.T) {
		fx := newFixture()
		fx.planDef.planDefinition = planDefinitionWith("PHQ9Applicable", "NothingDue")
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		assert.Len(t, plan.Activity, 1)
		assert.Equal(t, []string{"Questionnaire/phq-9"}, plan.Activity[0].Detail.InstantiatesCanonical)
	})

	t.Run("ActivityDefaultsApplied", func(t *testing.T) {
		fx := newFixture()
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		detail := plan.Activity[0].Detail
		assert.Equal(t, "scheduled", detail.Status)
		assert.Equal(t, 1, detail.ScheduledTiming.Repeat.Frequency)
		assert.Equal(t, float64(1), detail.ScheduledTiming.Repeat.Period)
		assert.Equal(t, "d", detail.ScheduledTiming.Repeat.PeriodUnit)
	})

	t.Run("EvaluationFailureAbortsSynthesis", func(t *testing.T) {
		fx := newFixture()
		fx.planDef.planDefinition = planDefinitionWith("PHQ9Applicable", "BrokenExpression")
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}
		fx.evaluator.evaluateErr["BrokenExpression"] = errors.New("engine exploded")

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.Error(t, err)
		assert.Nil(t, plan)
		assert.Nil(t, fx.carePlans.created)
		assert.Nil(t, fx.carePlans.updated)
	})

	t.Run("NewPlanUsesStub", func(t *testing.T) {
		fx := newFixture()
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		assert.NotNil(t, fx.carePlans.created)
		assert.Equal(t, "active", plan.Status)
		assert.Equal(t, "order", plan.Intent)
		assert.Equal(t, "719091000000102", plan.Category[0].Coding[0].Code)
		assert.Equal(t, "Patient/patient-1", plan.Subject.Reference)
	})

	t.Run("ExistingPlanKeepsIdentityReplacesActivities", func(t *testing.T) {
		fx := newFixture()
		fx.carePlans.existing = &fhir_dto.CarePlan{
			ResourceType: "CarePlan",
			ID:           "plan-42",
			Status:       "active",
			Activity: []fhir_dto.CarePlanActivity{
				{Detail: &fhir_dto.CarePlanActivityDetail{InstantiatesCanonical: []string{"Questionnaire/old"}}},
			},
		}
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		assert.NotNil(t, fx.carePlans.updated)
		assert.Nil(t, fx.carePlans.created)
		assert.Equal(t, "plan-42", plan.ID)
		assert.Len(t, plan.Activity, 1)
		assert.Equal(t, []string{"Questionnaire/phq-9"}, plan.Activity[0].Detail.InstantiatesCanonical)
	})

	t.Run("PersistenceFailureStillReturnsPlan", func(t *testing.T) {
		fx := newFixture()
		fx.carePlans.createErr = errors.New("store rejected")
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		plan, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.Error(t, err)
		assert.NotNil(t, plan)
		assert.Len(t, plan.Activity, 1)
	})

	t.Run("AuditEventPublished", func(t *testing.T) {
		fx := newFixture()
		fx.evaluator.results["PHQ9Applicable"] = &models.EvaluationResult{QuestionnaireID: "phq-9"}

		_, err := fx.usecase.SynthesizeCarePlan(context.Background(), fx.session, "patient-1", "proj-1")
		assert.NoError(t, err)
		assert.Len(t, fx.audit.events, 1)
		assert.Contains(t, fx.audit.events[0].Tags, "carePlanSynthesized")
	})
}

package resources

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/app/services/shared/sessioncache"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type resourceFetcherUsecase struct {
	SessionCache                contracts.SessionCache
	PatientFhirClient           contracts.PatientFhirClient
	QuestionnaireFhirClient     contracts.QuestionnaireFhirClient
	ConditionFhirClient         contracts.ConditionFhirClient
	QuestionnaireResponseClient contracts.QuestionnaireResponseFhirClient
	Log                         *zap.Logger
}

func NewResourceFetcherUsecase(
	sessionCache contracts.SessionCache,
	patientFhirClient contracts.PatientFhirClient,
	questionnaireFhirClient contracts.QuestionnaireFhirClient,
	conditionFhirClient contracts.ConditionFhirClient,
	questionnaireResponseClient contracts.QuestionnaireResponseFhirClient,
	logger *zap.Logger,
) contracts.ResourceFetcher {
	return &resourceFetcherUsecase{
		SessionCache:                sessionCache,
		PatientFhirClient:           patientFhirClient,
		QuestionnaireFhirClient:     questionnaireFhirClient,
		ConditionFhirClient:         conditionFhirClient,
		QuestionnaireResponseClient: questionnaireResponseClient,
		Log:                         logger,
	}
}

// FetchClinicalBundle serves the session's static resources: at most one
// network fetch per session, everything after that comes from the cache.
func (uc *resourceFetcherUsecase) FetchClinicalBundle(ctx context.Context, session *models.Session, patientID string) (*fhir_dto.FHIRBundle, error) {
	cacheKey := sessioncache.ResourceKey(constvars.CachePrefixFhirResources, session.SessionKey)

	cached, err := uc.SessionCache.Get(ctx, cacheKey)
	if err != nil {
		uc.Log.Warn("clinical bundle cache read failed, refetching",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
			zap.Error(err))
	}
	if cached != "" {
		bundle := new(fhir_dto.FHIRBundle)
		if err := json.Unmarshal([]byte(cached), bundle); err == nil {
			return bundle, nil
		}
		uc.Log.Warn("clinical bundle cache entry corrupt, refetching",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey))
	}

	var patientRaw, questionnairesRaw, conditionsRaw json.RawMessage

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		patientRaw, err = uc.PatientFhirClient.FindPatientByID(groupCtx, patientID)
		return err
	})
	group.Go(func() error {
		var err error
		questionnairesRaw, err = uc.QuestionnaireFhirClient.FindQuestionnaires(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		conditionsRaw, err = uc.ConditionFhirClient.FindConditionsByPatientID(groupCtx, patientID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, exceptions.ErrFetchClinicalData(err, constvars.ResourceBundle)
	}

	bundle := &fhir_dto.FHIRBundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.FhirBundleTypeCollection,
	}
	for _, raw := range []json.RawMessage{patientRaw, questionnairesRaw, conditionsRaw} {
		bundle.Entry = append(bundle.Entry, flattenResource(raw)...)
	}
	bundle.Total = len(bundle.Entry)

	// Drop any previous generation before writing so a stale bundle and a
	// fresh one never coexist under the same prefix.
	if err := uc.SessionCache.ClearByPrefix(ctx, constvars.CachePrefixFhirResources); err != nil {
		uc.Log.Warn("clinical bundle cache invalidation failed",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
			zap.Error(err))
	} else if err := uc.SessionCache.Set(ctx, cacheKey, bundle); err != nil {
		uc.Log.Warn("clinical bundle cache write failed",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
			zap.Error(err))
	}

	return bundle, nil
}

// FetchQuestionnaireResponses is deliberately uncached and failure-tolerant:
// stale or missing responses degrade to "no responses yet".
func (uc *resourceFetcherUsecase) FetchQuestionnaireResponses(ctx context.Context, patientID string) []fhir_dto.QuestionnaireResponse {
	questionnaireResponses, err := uc.QuestionnaireResponseClient.FindResponsesByPatientID(ctx, patientID)
	if err != nil {
		uc.Log.Warn("questionnaire responses fetch failed, treating as none",
			zap.String(constvars.LoggingPatientIDKey, patientID),
			zap.Error(err))
		return nil
	}
	return questionnaireResponses
}

// flattenResource unwraps a search-result bundle into its entries, or wraps
// a single resource as one entry. Empty payloads contribute nothing.
func flattenResource(raw json.RawMessage) []fhir_dto.Entry {
	if len(raw) == 0 {
		return nil
	}
	if !fhir_dto.IsBundle(raw) {
		return []fhir_dto.Entry{{Resource: raw}}
	}
	var searchBundle fhir_dto.FHIRBundle
	if err := json.Unmarshal(raw, &searchBundle); err != nil {
		return nil
	}
	return searchBundle.Entry
}

package scheduler

import (
	"context"
	"strings"
	"time"

	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/app/services/shared/sessioncache"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"
	"screening-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type instrumentSchedulerUsecase struct {
	SessionCache         contracts.SessionCache
	ResourceFetcher      contracts.ResourceFetcher
	StaticInstrumentList string
	Log                  *zap.Logger
	now                  func() time.Time
}

func NewInstrumentSchedulerUsecase(
	sessionCache contracts.SessionCache,
	resourceFetcher contracts.ResourceFetcher,
	staticInstrumentList string,
	logger *zap.Logger,
) contracts.InstrumentScheduler {
	return &instrumentSchedulerUsecase{
		SessionCache:         sessionCache,
		ResourceFetcher:      resourceFetcher,
		StaticInstrumentList: staticInstrumentList,
		Log:                  logger,
		now:                  time.Now,
	}
}

// GetDueInstruments decides which instruments remain to be administered this
// session. The first computed list is cached for the session's lifetime so
// the presented sequence never changes mid-session; recomputation happens
// only when the session key rotates. An empty list is a valid result.
func (uc *instrumentSchedulerUsecase) GetDueInstruments(ctx context.Context, session *models.Session, patientID string, carePlan *fhir_dto.CarePlan) ([]string, error) {
	if patientID == "" {
		return utils.ParseInstrumentList(uc.StaticInstrumentList), nil
	}

	cacheKey := sessioncache.SessionStateKey(session.SessionKey, constvars.CacheSuffixScheduledInstruments)
	if cached, err := uc.SessionCache.Get(ctx, cacheKey); err == nil && cached != "" {
		var scheduled []string
		if err := json.Unmarshal([]byte(cached), &scheduled); err == nil {
			return scheduled, nil
		}
		uc.Log.Warn("scheduled list cache entry corrupt, recomputing",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey))
	}

	candidates := collectCandidates(carePlan)
	completedResponses := uc.completedResponses(ctx, patientID)

	administered, err := uc.GetAdministered(ctx, session)
	if err != nil {
		return nil, err
	}
	administeredSet := make(map[string]struct{}, len(administered))
	for _, instrumentID := range administered {
		administeredSet[instrumentID] = struct{}{}
	}

	today := utils.LocalMidnight(uc.now())
	due := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if _, skip := administeredSet[candidate.InstrumentID]; skip {
			continue
		}
		if uc.isDue(candidate, completedResponses, today) {
			due = append(due, candidate.InstrumentID)
		}
	}

	if err := uc.SessionCache.Set(ctx, cacheKey, due); err != nil {
		uc.Log.Warn("scheduled list cache write failed",
			zap.String(constvars.LoggingSessionKeyKey, session.SessionKey),
			zap.Error(err))
	}

	return due, nil
}

func (uc *instrumentSchedulerUsecase) MarkAdministered(ctx context.Context, session *models.Session, instrumentID string) error {
	key := sessioncache.SessionStateKey(session.SessionKey, constvars.CacheSuffixAdministeredInstruments)
	if err := uc.SessionCache.PushToList(ctx, key, instrumentID); err != nil {
		return exceptions.ErrRedisPushToList(err)
	}
	return nil
}

func (uc *instrumentSchedulerUsecase) GetAdministered(ctx context.Context, session *models.Session) ([]string, error) {
	key := sessioncache.SessionStateKey(session.SessionKey, constvars.CacheSuffixAdministeredInstruments)
	administered, err := uc.SessionCache.GetList(ctx, key)
	if err != nil {
		return nil, exceptions.ErrRedisGetList(err)
	}
	return administered, nil
}

func (uc *instrumentSchedulerUsecase) completedResponses(ctx context.Context, patientID string) []fhir_dto.QuestionnaireResponse {
	all := uc.ResourceFetcher.FetchQuestionnaireResponses(ctx, patientID)
	completed := make([]fhir_dto.QuestionnaireResponse, 0, len(all))
	for _, response := range all {
		if response.Status == constvars.FhirQuestionnaireResponseStatusCompleted {
			completed = append(completed, response)
		}
	}
	return completed
}

// isDue applies the frequency/period window. Without a usable schedule the
// instrument is due until answered at least once. With one, the instrument
// is satisfied only when the count of responses inside the window equals the
// frequency exactly; over-answering does not suppress it.
func (uc *instrumentSchedulerUsecase) isDue(candidate models.ScheduledInstrument, completedResponses []fhir_dto.QuestionnaireResponse, today time.Time) bool {
	var matching []fhir_dto.QuestionnaireResponse
	for _, response := range completedResponses {
		if utils.ReferenceMatchesInstrument(response.Questionnaire, candidate.InstrumentID) {
			matching = append(matching, response)
		}
	}

	repeat := scheduleRepeat(candidate.Schedule)
	if repeat == nil || repeat.Frequency == 0 || utils.PeriodUnitHours(repeat.PeriodUnit) == 0 {
		return len(matching) == 0
	}

	hours := repeat.Period * float64(utils.PeriodUnitHours(repeat.PeriodUnit))
	withinWindow := 0
	for _, response := range matching {
		authored, err := utils.ParseFHIRDateTime(response.Authored)
		if err != nil {
			uc.Log.Warn("unparseable authored timestamp on response",
				zap.String("responseID", response.ID),
				zap.Error(err))
			continue
		}
		if utils.ElapsedHours(today, authored) < hours {
			withinWindow++
		}
	}

	return withinWindow != repeat.Frequency
}

// collectCandidates extracts instrument ids from the care plan's activities,
// deduplicated case-insensitively in insertion order, first casing kept.
func collectCandidates(carePlan *fhir_dto.CarePlan) []models.ScheduledInstrument {
	if carePlan == nil {
		return nil
	}
	seen := make(map[string]struct{})
	candidates := make([]models.ScheduledInstrument, 0, len(carePlan.Activity))
	for _, activity := range carePlan.Activity {
		if activity.Detail == nil || len(activity.Detail.InstantiatesCanonical) == 0 {
			continue
		}
		instrumentID := utils.ExtractInstrumentID(activity.Detail.InstantiatesCanonical[0])
		if instrumentID == "" {
			continue
		}
		dedupeKey := strings.ToLower(instrumentID)
		if _, dup := seen[dedupeKey]; dup {
			continue
		}
		seen[dedupeKey] = struct{}{}
		candidates = append(candidates, models.ScheduledInstrument{
			InstrumentID: instrumentID,
			Schedule:     activity.Detail.ScheduledTiming,
		})
	}
	return candidates
}

func scheduleRepeat(timing *fhir_dto.Timing) *fhir_dto.TimingRepeat {
	if timing == nil {
		return nil
	}
	return timing.Repeat
}

package screenings

import (
	"context"
	"fmt"
	"screening-service/internal/app/config"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/dto/requests"
	"screening-service/internal/pkg/dto/responses"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"
	"screening-service/internal/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type screeningUsecase struct {
	Scheduler          contracts.InstrumentScheduler
	Orchestrator       contracts.CarePlanOrchestrator
	CarePlanFhirClient contracts.CarePlanFhirClient
	Registry           contracts.ArtifactRegistry
	AuditLog           contracts.AuditLogPublisher
	InternalConfig     *config.InternalConfig
	Log                *zap.Logger
}

func NewScreeningUsecase(
	scheduler contracts.InstrumentScheduler,
	orchestrator contracts.CarePlanOrchestrator,
	carePlanFhirClient contracts.CarePlanFhirClient,
	registry contracts.ArtifactRegistry,
	auditLog contracts.AuditLogPublisher,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.ScreeningUsecase {
	return &screeningUsecase{
		Scheduler:          scheduler,
		Orchestrator:       orchestrator,
		CarePlanFhirClient: carePlanFhirClient,
		Registry:           registry,
		AuditLog:           auditLog,
		InternalConfig:     internalConfig,
		Log:                logger,
	}
}

// GetNextInstruments resolves the patient's care plan (synthesizing one when
// none exists) and asks the scheduler which instruments remain due.
func (uc *screeningUsecase) GetNextInstruments(ctx context.Context, session *models.Session) (*responses.DueInstruments, error) {
	patientID := session.PatientID
	if patientID == "" {
		instruments, err := uc.Scheduler.GetDueInstruments(ctx, session, "", nil)
		if err != nil {
			return nil, err
		}
		return &responses.DueInstruments{Instruments: instruments}, nil
	}

	carePlan, err := uc.resolveCarePlan(ctx, session, patientID)
	if err != nil {
		return nil, err
	}

	instruments, err := uc.Scheduler.GetDueInstruments(ctx, session, patientID, carePlan)
	if err != nil {
		return nil, err
	}

	uc.publishIssuanceAudit(ctx, session, patientID, instruments)

	return &responses.DueInstruments{PatientID: patientID, Instruments: instruments}, nil
}

// GetScreeningArtifacts returns, per due instrument, the tuple the survey
// renderer consumes: questionnaire, compiled logic library, value sets. A
// missing auxiliary instrument is skipped; a missing default instrument is a
// configuration error.
func (uc *screeningUsecase) GetScreeningArtifacts(ctx context.Context, session *models.Session) ([]responses.ScreeningArtifacts, error) {
	dueInstruments, err := uc.GetNextInstruments(ctx, session)
	if err != nil {
		return nil, err
	}

	projectID := uc.projectID(session)
	libraryName := fmt.Sprintf(constvars.FhirQuestionnaireLogicNameFormat, projectID)

	logicLibrary, err := uc.Registry.LogicLibraryJSON(ctx, libraryName)
	if err != nil {
		return nil, exceptions.ErrMissingLogicLibrary(err, projectID)
	}
	valueSets, err := uc.Registry.ValueSetJSON(ctx)
	if err != nil {
		return nil, err
	}

	artifacts := make([]responses.ScreeningArtifacts, 0, len(dueInstruments.Instruments))
	for _, instrumentID := range dueInstruments.Instruments {
		questionnaire, err := uc.Registry.QuestionnaireJSON(ctx, instrumentID)
		if err != nil {
			if instrumentID == uc.InternalConfig.Screening.DefaultInstrument {
				return nil, exceptions.ErrScreeningConfiguration(err)
			}
			uc.Log.Warn("auxiliary instrument artifact missing, skipping",
				zap.String("instrumentID", instrumentID),
				zap.Error(err))
			continue
		}
		artifacts = append(artifacts, responses.ScreeningArtifacts{
			InstrumentID:  instrumentID,
			Questionnaire: questionnaire,
			LogicLibrary:  logicLibrary,
			ValueSets:     valueSets,
		})
	}

	return artifacts, nil
}

func (uc *screeningUsecase) ApplyPlanDefinition(ctx context.Context, session *models.Session, request *requests.ApplyPlanDefinition) (*fhir_dto.CarePlan, error) {
	projectID := request.ProjectID
	if projectID == "" {
		projectID = uc.projectID(session)
	}
	return uc.Orchestrator.SynthesizeCarePlan(ctx, session, request.PatientID, projectID)
}

func (uc *screeningUsecase) MarkInstrumentAdministered(ctx context.Context, session *models.Session, request *requests.MarkAdministered) error {
	if err := uc.Scheduler.MarkAdministered(ctx, session, request.InstrumentID); err != nil {
		return err
	}

	event := models.AuditEvent{
		ID:      uuid.New().String(),
		Level:   "info",
		Tags:    []string{constvars.AuditTagScreening, constvars.AuditTagAdministered},
		Subject: utils.BuildPatientReference(session.PatientID),
		Message: map[string]interface{}{
			"sessionKey":   session.SessionKey,
			"instrumentID": request.InstrumentID,
		},
	}
	if err := uc.AuditLog.Publish(ctx, event); err != nil {
		uc.Log.Warn("audit event publish failed",
			zap.String("eventID", event.ID),
			zap.Error(err))
	}
	return nil
}

// resolveCarePlan prefers the stored plan; with none on file it synthesizes
// one. A synthesis that only failed at persistence still yields a usable
// plan.
func (uc *screeningUsecase) resolveCarePlan(ctx context.Context, session *models.Session, patientID string) (*fhir_dto.CarePlan, error) {
	existing, err := uc.CarePlanFhirClient.FindQuestionnaireCarePlan(ctx, patientID)
	if err != nil {
		uc.Log.Warn("care plan lookup failed, synthesizing",
			zap.String(constvars.LoggingPatientIDKey, patientID),
			zap.Error(err))
	}
	if existing != nil {
		return existing, nil
	}

	carePlan, err := uc.Orchestrator.SynthesizeCarePlan(ctx, session, patientID, uc.projectID(session))
	if err != nil {
		if carePlan == nil {
			return nil, err
		}
		uc.Log.Warn("care plan not persisted, scheduling from the in-memory plan",
			zap.String(constvars.LoggingPatientIDKey, patientID),
			zap.Error(err))
	}
	return carePlan, nil
}

func (uc *screeningUsecase) projectID(session *models.Session) string {
	if session.ProjectID != "" {
		return session.ProjectID
	}
	return uc.InternalConfig.Screening.ProjectID
}

func (uc *screeningUsecase) publishIssuanceAudit(ctx context.Context, session *models.Session, patientID string, instruments []string) {
	event := models.AuditEvent{
		ID:      uuid.New().String(),
		Level:   "info",
		Tags:    []string{constvars.AuditTagScreening, constvars.AuditTagInstrument},
		Subject: utils.BuildPatientReference(patientID),
		Message: map[string]interface{}{
			"sessionKey":  session.SessionKey,
			"instruments": instruments,
		},
	}
	if err := uc.AuditLog.Publish(ctx, event); err != nil {
		uc.Log.Warn("audit event publish failed",
			zap.String("eventID", event.ID),
			zap.Error(err))
	}
}

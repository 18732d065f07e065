package controllers

import (
	"context"
	"net/http"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/delivery/http/middlewares"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/dto/requests"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/utils"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type ScreeningController struct {
	Log              *zap.Logger
	ScreeningUsecase contracts.ScreeningUsecase
}

func NewScreeningController(logger *zap.Logger, screeningUsecase contracts.ScreeningUsecase) *ScreeningController {
	return &ScreeningController{
		Log:              logger,
		ScreeningUsecase: screeningUsecase,
	}
}

// sessionOrAnonymous falls back to an empty session for callers the optional
// session middleware let through without a token; they only ever reach the
// static instrument list.
func sessionOrAnonymous(r *http.Request) *models.Session {
	if session, ok := middlewares.SessionFromContext(r.Context()); ok {
		return session
	}
	return &models.Session{}
}

func (ctrl *ScreeningController) GetNextInstruments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ScreeningUsecase.GetNextInstruments(ctx, sessionOrAnonymous(r))
	if err != nil {
		if err == context.DeadlineExceeded {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.DueInstrumentsGetSuccess, response)
}

func (ctrl *ScreeningController) GetScreeningArtifacts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	response, err := ctrl.ScreeningUsecase.GetScreeningArtifacts(ctx, sessionOrAnonymous(r))
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ScreeningArtifactsGetSuccess, response)
}

func (ctrl *ScreeningController) ApplyPlanDefinition(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	request := new(requests.ApplyPlanDefinition)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if request.PatientID == "" {
		request.PatientID = session.PatientID
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	carePlan, err := ctrl.ScreeningUsecase.ApplyPlanDefinition(ctx, session, request)
	if err != nil {
		// A plan that only failed persistence is still returned so the
		// caller can schedule from it.
		if carePlan != nil {
			utils.BuildSuccessResponse(w, constvars.StatusAccepted, constvars.CarePlanSynthesizedSuccess, carePlan)
			return
		}
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.CarePlanSynthesizedSuccess, carePlan)
}

func (ctrl *ScreeningController) MarkAdministered(w http.ResponseWriter, r *http.Request) {
	session, ok := middlewares.SessionFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrTokenMissing(nil))
		return
	}

	request := new(requests.MarkAdministered)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := ctrl.ScreeningUsecase.MarkInstrumentAdministered(ctx, session, request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.InstrumentAdministeredSuccess, nil)
}

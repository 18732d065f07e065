package routers

import (
	"screening-service/internal/app/delivery/http/controllers"
	"screening-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachScreeningRoutes(router chi.Router, middlewares *middlewares.Middlewares, screeningController *controllers.ScreeningController) {
	router.Use(middlewares.NoCache)

	router.With(middlewares.SessionOptional).Get("/next", screeningController.GetNextInstruments)
	router.With(middlewares.SessionOptional).Get("/next/artifacts", screeningController.GetScreeningArtifacts)
	router.With(middlewares.Authenticate).Post("/apply", screeningController.ApplyPlanDefinition)
	router.With(middlewares.Authenticate).Post("/administered", screeningController.MarkAdministered)
}

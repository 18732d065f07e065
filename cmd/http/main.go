package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"screening-service/internal/app/config"
	"screening-service/internal/app/delivery/http/controllers"
	"screening-service/internal/app/delivery/http/middlewares"
	"screening-service/internal/app/delivery/http/routers"
	"screening-service/internal/app/drivers/database"
	"screening-service/internal/app/drivers/logger"
	"screening-service/internal/app/drivers/messaging"
	"screening-service/internal/app/drivers/storage"
	"screening-service/internal/app/services/core/careplans"
	"screening-service/internal/app/services/core/resources"
	"screening-service/internal/app/services/core/scheduler"
	"screening-service/internal/app/services/core/screenings"
	"screening-service/internal/app/services/core/session"
	"screening-service/internal/app/services/fhir_spark/care_plans"
	"screening-service/internal/app/services/fhir_spark/conditions"
	"screening-service/internal/app/services/fhir_spark/patients"
	"screening-service/internal/app/services/fhir_spark/plan_definitions"
	"screening-service/internal/app/services/fhir_spark/questionnaire_responses"
	"screening-service/internal/app/services/fhir_spark/questionnaires"
	"screening-service/internal/app/services/shared/auditlog"
	"screening-service/internal/app/services/shared/cqlengine"
	"screening-service/internal/app/services/shared/registry"
	"screening-service/internal/app/services/shared/sessioncache"
	"screening-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)
	requestLogger := logger.NewRequestLogger(internalConfig)

	redisClient := database.NewRedisClient(driverConfig)
	mongoClient := database.NewMongoDB(driverConfig)
	rabbitConn := messaging.NewRabbitMQ(driverConfig)
	minioClient := storage.NewMinio(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrap := config.Bootstrap{
		Router:         chiRouter,
		Redis:          redisClient,
		MongoDB:        mongoClient,
		RabbitMQ:       rabbitConn,
		Minio:          minioClient,
		Logger:         zapLogger,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}

	bootstrapTheApp(&bootstrap, requestLogger)

	server := &http.Server{
		Addr:    internalConfig.App.Port,
		Handler: chiRouter,
	}

	go func() {
		zapLogger.Sugar().Infof("screening service listening on %s", internalConfig.App.Port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Waiting for pending requests to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeout),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Drivers forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func bootstrapTheApp(bootstrap *config.Bootstrap, requestLogger *logrus.Logger) {
	internalConfig := bootstrap.InternalConfig

	// Session cache + session records
	sessionCache := sessioncache.NewSessionCacheRedis(bootstrap.Redis)
	sessionService := session.NewSessionService(sessionCache)

	// FHIR clients
	fhirBaseUrl := internalConfig.FHIR.BaseUrl
	patientFhirClient := patients.NewPatientFhirClient(fhirBaseUrl)
	questionnaireFhirClient := questionnaires.NewQuestionnaireFhirClient(fhirBaseUrl)
	conditionFhirClient := conditions.NewConditionFhirClient(fhirBaseUrl)
	questionnaireResponseFhirClient := questionnaire_responses.NewQuestionnaireResponseFhirClient(fhirBaseUrl)
	carePlanFhirClient := care_plans.NewCarePlanFhirClient(fhirBaseUrl)
	planDefinitionFhirClient := plan_definitions.NewPlanDefinitionFhirClient(fhirBaseUrl)

	// Artifact registry: object store first, remote catalog as fallback
	artifactStore := registry.NewMinioArtifactStore(bootstrap.Minio, bootstrap.DriverConfig.Minio.BucketName)
	artifactCatalog := registry.NewArtifactMongoRepository(bootstrap.MongoDB, bootstrap.DriverConfig.MongoDB.DbName)
	registeredInstruments := utils.ParseInstrumentList(internalConfig.Screening.StaticInstrumentList)
	artifactRegistry := registry.NewArtifactRegistry(artifactStore, artifactCatalog, registeredInstruments, bootstrap.Logger)

	// CQL engine worker
	engineWorker := cqlengine.NewWorker(internalConfig.CQL.EngineBaseUrl, internalConfig.CQL.QueueDepth, bootstrap.Logger)
	bootstrap.EngineStop = engineWorker.Start()

	// Audit log over RabbitMQ
	auditPublisher, err := auditlog.NewAuditLogPublisher(
		bootstrap.RabbitMQ,
		bootstrap.Logger,
		internalConfig.Audit.QueueName,
		internalConfig.Audit.Deployment,
	)
	if err != nil {
		log.Fatalf("Failed to initialize audit log publisher: %v", err)
	}

	// Core usecases
	resourceFetcher := resources.NewResourceFetcherUsecase(
		sessionCache,
		patientFhirClient,
		questionnaireFhirClient,
		conditionFhirClient,
		questionnaireResponseFhirClient,
		bootstrap.Logger,
	)
	carePlanOrchestrator := careplans.NewCarePlanOrchestratorUsecase(
		sessionCache,
		resourceFetcher,
		artifactRegistry,
		planDefinitionFhirClient,
		carePlanFhirClient,
		engineWorker,
		auditPublisher,
		bootstrap.Logger,
	)
	instrumentScheduler := scheduler.NewInstrumentSchedulerUsecase(
		sessionCache,
		resourceFetcher,
		internalConfig.Screening.StaticInstrumentList,
		bootstrap.Logger,
	)
	screeningUsecase := screenings.NewScreeningUsecase(
		instrumentScheduler,
		carePlanOrchestrator,
		carePlanFhirClient,
		artifactRegistry,
		auditPublisher,
		internalConfig,
		bootstrap.Logger,
	)

	// Delivery
	screeningController := controllers.NewScreeningController(bootstrap.Logger, screeningUsecase)
	mw := middlewares.NewMiddlewares(bootstrap.Logger, sessionService, internalConfig)

	routers.SetupRoutes(bootstrap.Router, internalConfig, mw, screeningController, requestLogger)
}

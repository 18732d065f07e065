package config

type (
	InternalConfig struct {
		App       App
		FHIR      FHIR
		CQL       CQL
		JWT       JWT
		Screening Screening
		Audit     Audit
	}

	DriverConfig struct {
		Redis    Redis
		MongoDB  MongoDB
		RabbitMQ RabbitMQ
		Minio    Minio
		Logger   Logger
	}

	App struct {
		Env             string
		Port            string
		Version         string
		Timezone        string
		EndpointPrefix  string
		MaxRequests     int
		ShutdownTimeout int
	}

	FHIR struct {
		BaseUrl string
	}

	CQL struct {
		EngineBaseUrl string
		QueueDepth    int
	}

	JWT struct {
		Secret string
	}

	Screening struct {
		// ProjectID selects the plan definition and logic library.
		ProjectID string
		// DefaultInstrument must resolve in the registry; a miss is fatal.
		DefaultInstrument string
		// StaticInstrumentList serves callers without a patient context.
		StaticInstrumentList string
	}

	Audit struct {
		Deployment string
		QueueName  string
	}

	Redis struct {
		Host     string
		Port     string
		Password string
	}

	MongoDB struct {
		Host     string
		Port     string
		DbName   string
		Username string
		Password string
	}

	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}

	Minio struct {
		Host       string
		Port       string
		Username   string
		Password   string
		BucketName string
		UseSSL     bool
	}

	Logger struct {
		Level               string
		OutputFileName      string
		OutputErrorFileName string
	}
)

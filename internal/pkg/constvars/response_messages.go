package constvars

const (
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	DueInstrumentsGetSuccess      = "due instruments retrieved successfully"
	ScreeningArtifactsGetSuccess  = "screening artifacts retrieved successfully"
	CarePlanSynthesizedSuccess    = "care plan synthesized successfully"
	InstrumentAdministeredSuccess = "instrument marked as administered"
)

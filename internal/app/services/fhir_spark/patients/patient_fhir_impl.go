package patients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"screening-service/internal/app/contracts"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
)

type patientFhirClient struct {
	BaseUrl string
}

func NewPatientFhirClient(baseUrl string) contracts.PatientFhirClient {
	return &patientFhirClient{
		BaseUrl: baseUrl + "/" + constvars.ResourcePatient,
	}
}

func (c *patientFhirClient) FindPatientByID(ctx context.Context, patientID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, c.BaseUrl+"/"+patientID, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFHIRJSON)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourcePatient)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourcePatient)
	}

	return json.RawMessage(bodyBytes), nil
}

func decodeOutcomeError(bodyBytes []byte, resource string) error {
	var outcome fhir_dto.OperationOutcome
	err := json.Unmarshal(bodyBytes, &outcome)
	if err == nil && len(outcome.Issue) > 0 {
		return exceptions.ErrGetFHIRResource(fmt.Errorf(outcome.Issue[0].Diagnostics), resource)
	}
	return exceptions.ErrGetFHIRResource(nil, resource)
}

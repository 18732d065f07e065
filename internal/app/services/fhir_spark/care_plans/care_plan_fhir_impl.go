package care_plans

import (
	"bytes"
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

type carePlanFhirClient struct {
	BaseUrl string
}

func NewCarePlanFhirClient(baseUrl string) contracts.CarePlanFhirClient {
	return &carePlanFhirClient{
		BaseUrl: baseUrl + "/" + constvars.ResourceCarePlan,
	}
}

// FindQuestionnaireCarePlan returns the most recently updated questionnaire
// care plan for the patient, or nil when none exists.
func (c *carePlanFhirClient) FindQuestionnaireCarePlan(ctx context.Context, patientID string) (*fhir_dto.CarePlan, error) {
	url := c.BaseUrl + fmt.Sprintf(constvars.FhirCarePlanQuestionnaireQuery, patientID)
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, url, nil)
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
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourceCarePlan)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourceCarePlan)
	}

	var result struct {
		ResourceType string `json:"resourceType"`
		Total        int    `json:"total"`
		Entry        []struct {
			Resource fhir_dto.CarePlan `json:"resource"`
		} `json:"entry"`
	}
	err = json.Unmarshal(bodyBytes, &result)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceCarePlan)
	}

	if len(result.Entry) == 0 {
		return nil, nil
	}
	carePlan := result.Entry[0].Resource
	return &carePlan, nil
}

func (c *carePlanFhirClient) CreateCarePlan(ctx context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error) {
	requestJSON, err := json.Marshal(carePlan)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, c.BaseUrl, bytes.NewBuffer(requestJSON))
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrCreateFHIRResource(err, constvars.ResourceCarePlan)
	}

	if resp.StatusCode != constvars.StatusCreated && resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourceCarePlan)
	}

	created := new(fhir_dto.CarePlan)
	err = json.Unmarshal(bodyBytes, created)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceCarePlan)
	}

	return created, nil
}

// UpdateCarePlan replaces the stored plan. When the local copy carries a
// version id the update is conditional, so a concurrent synthesis loses
// cleanly instead of overwriting silently.
func (c *carePlanFhirClient) UpdateCarePlan(ctx context.Context, carePlan *fhir_dto.CarePlan) (*fhir_dto.CarePlan, error) {
	requestJSON, err := json.Marshal(carePlan)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPut, c.BaseUrl+"/"+carePlan.ID, bytes.NewBuffer(requestJSON))
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)
	if carePlan.Meta != nil && carePlan.Meta.VersionId != "" {
		req.Header.Set(constvars.HeaderIfMatch, fmt.Sprintf("W/%q", carePlan.Meta.VersionId))
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrUpdateFHIRResource(err, constvars.ResourceCarePlan)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourceCarePlan)
	}

	updated := new(fhir_dto.CarePlan)
	err = json.Unmarshal(bodyBytes, updated)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceCarePlan)
	}

	return updated, nil
}

func decodeOutcomeError(bodyBytes []byte, resource string) error {
	var outcome fhir_dto.OperationOutcome
	err := json.Unmarshal(bodyBytes, &outcome)
	if err == nil && len(outcome.Issue) > 0 {
		return exceptions.ErrGetFHIRResource(fmt.Errorf(outcome.Issue[0].Diagnostics), resource)
	}
	return exceptions.ErrGetFHIRResource(nil, resource)
}

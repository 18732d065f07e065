package questionnaire_responses

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

type questionnaireResponseFhirClient struct {
	BaseUrl string
}

func NewQuestionnaireResponseFhirClient(baseUrl string) contracts.QuestionnaireResponseFhirClient {
	return &questionnaireResponseFhirClient{
		BaseUrl: baseUrl + "/" + constvars.ResourceQuestionnaireResponse,
	}
}

func (c *questionnaireResponseFhirClient) FindResponsesByPatientID(ctx context.Context, patientID string) ([]fhir_dto.QuestionnaireResponse, error) {
	url := c.BaseUrl + fmt.Sprintf(constvars.FhirQuestionnaireResponsesByQuery, patientID)
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, url, nil)
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFHIRJSON)
	// Responses must always be fresh; a cached copy would flip due/not-due
	// decisions the wrong way.
	req.Header.Set(constvars.HeaderCacheControl, constvars.CacheControlNoCache)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourceQuestionnaireResponse)
	}

	if resp.StatusCode != constvars.StatusOK {
		var outcome fhir_dto.OperationOutcome
		if decodeErr := json.Unmarshal(bodyBytes, &outcome); decodeErr == nil && len(outcome.Issue) > 0 {
			return nil, exceptions.ErrGetFHIRResource(fmt.Errorf(outcome.Issue[0].Diagnostics), constvars.ResourceQuestionnaireResponse)
		}
		return nil, exceptions.ErrGetFHIRResource(nil, constvars.ResourceQuestionnaireResponse)
	}

	var result struct {
		ResourceType string `json:"resourceType"`
		Total        int    `json:"total"`
		Entry        []struct {
			Resource fhir_dto.QuestionnaireResponse `json:"resource"`
		} `json:"entry"`
	}
	err = json.Unmarshal(bodyBytes, &result)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceQuestionnaireResponse)
	}

	responses := make([]fhir_dto.QuestionnaireResponse, len(result.Entry))
	for i, entry := range result.Entry {
		responses[i] = entry.Resource
	}

	return responses, nil
}

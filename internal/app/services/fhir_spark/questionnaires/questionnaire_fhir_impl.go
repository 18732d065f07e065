package questionnaires

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

type questionnaireFhirClient struct {
	BaseUrl string
}

func NewQuestionnaireFhirClient(baseUrl string) contracts.QuestionnaireFhirClient {
	return &questionnaireFhirClient{
		BaseUrl: baseUrl + "/" + constvars.ResourceQuestionnaire,
	}
}

// FindQuestionnaires returns the raw instrument catalog search bundle; the
// resource fetcher flattens it into the clinical bundle.
func (c *questionnaireFhirClient) FindQuestionnaires(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, c.BaseUrl, nil)
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
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourceQuestionnaire)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourceQuestionnaire)
	}

	return json.RawMessage(bodyBytes), nil
}

func (c *questionnaireFhirClient) FindQuestionnaireByID(ctx context.Context, questionnaireID string) (*fhir_dto.Questionnaire, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, c.BaseUrl+"/"+questionnaireID, nil)
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
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourceQuestionnaire)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, decodeOutcomeError(bodyBytes, constvars.ResourceQuestionnaire)
	}

	questionnaire := new(fhir_dto.Questionnaire)
	err = json.Unmarshal(bodyBytes, questionnaire)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourceQuestionnaire)
	}

	return questionnaire, nil
}

func decodeOutcomeError(bodyBytes []byte, resource string) error {
	var outcome fhir_dto.OperationOutcome
	err := json.Unmarshal(bodyBytes, &outcome)
	if err == nil && len(outcome.Issue) > 0 {
		return exceptions.ErrGetFHIRResource(fmt.Errorf(outcome.Issue[0].Diagnostics), resource)
	}
	return exceptions.ErrGetFHIRResource(nil, resource)
}

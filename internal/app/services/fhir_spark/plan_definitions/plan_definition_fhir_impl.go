package plan_definitions

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

type planDefinitionFhirClient struct {
	BaseUrl string
}

func NewPlanDefinitionFhirClient(baseUrl string) contracts.PlanDefinitionFhirClient {
	return &planDefinitionFhirClient{
		BaseUrl: baseUrl + "/" + constvars.ResourcePlanDefinition,
	}
}

func (c *planDefinitionFhirClient) FindPlanDefinitionByID(ctx context.Context, planDefinitionID string) (*fhir_dto.PlanDefinition, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodGet, c.BaseUrl+"/"+planDefinitionID, nil)
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
		return nil, exceptions.ErrGetFHIRResource(err, constvars.ResourcePlanDefinition)
	}

	if resp.StatusCode != constvars.StatusOK {
		var outcome fhir_dto.OperationOutcome
		if decodeErr := json.Unmarshal(bodyBytes, &outcome); decodeErr == nil && len(outcome.Issue) > 0 {
			return nil, exceptions.ErrGetFHIRResource(fmt.Errorf(outcome.Issue[0].Diagnostics), constvars.ResourcePlanDefinition)
		}
		return nil, exceptions.ErrGetFHIRResource(nil, constvars.ResourcePlanDefinition)
	}

	planDefinition := new(fhir_dto.PlanDefinition)
	err = json.Unmarshal(bodyBytes, planDefinition)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, constvars.ResourcePlanDefinition)
	}

	return planDefinition, nil
}

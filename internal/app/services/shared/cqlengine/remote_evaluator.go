package cqlengine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
)

// remoteEngine is the HTTP transport to the CQL evaluation service. It has
// no ordering knowledge of its own; the worker in front of it enforces the
// initialize -> bundle -> evaluate sequence.
type remoteEngine struct {
	BaseUrl string
}

func newRemoteEngine(baseUrl string) *remoteEngine {
	return &remoteEngine{BaseUrl: baseUrl}
}

type initializePayload struct {
	Library    json.RawMessage        `json:"library"`
	ValueSets  json.RawMessage        `json:"valueSets"`
	Parameters map[string]interface{} `json:"parameters"`
}

type evaluatePayload struct {
	Expression string `json:"expression"`
}

func (e *remoteEngine) postLibrary(ctx context.Context, correlationID string, payload initializePayload) error {
	_, err := e.post(ctx, correlationID, "/library", payload)
	return err
}

func (e *remoteEngine) postBundle(ctx context.Context, correlationID string, bundle interface{}) error {
	_, err := e.post(ctx, correlationID, "/bundle", bundle)
	return err
}

func (e *remoteEngine) postEvaluate(ctx context.Context, correlationID, expression string) ([]byte, error) {
	return e.post(ctx, correlationID, "/evaluate", evaluatePayload{Expression: expression})
}

func (e *remoteEngine) post(ctx context.Context, correlationID, path string, payload interface{}) ([]byte, error) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, exceptions.ErrCannotMarshalJSON(err)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, e.BaseUrl+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, exceptions.ErrCreateHTTPRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	req.Header.Set(constvars.HeaderRequestID, correlationID)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, exceptions.ErrSendHTTPRequest(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exceptions.ErrDecodeResponse(err, path)
	}

	if resp.StatusCode != constvars.StatusOK {
		return nil, exceptions.ErrSendHTTPRequest(fmt.Errorf("cql engine %s returned status %d", path, resp.StatusCode))
	}

	return bodyBytes, nil
}

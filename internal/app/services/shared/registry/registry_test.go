package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeStore struct {
	objects map[string]string
}

func (f *fakeStore) GetArtifactObject(_ context.Context, kind, name string) (json.RawMessage, error) {
	content, ok := f.objects[kind+"/"+name]
	if !ok {
		return nil, errors.New("object not found")
	}
	return json.RawMessage(content), nil
}

type fakeCatalog struct {
	documents map[string]string
	calls     int
}

func (f *fakeCatalog) FindArtifact(_ context.Context, kind, artifactID string) (json.RawMessage, error) {
	f.calls++
	content, ok := f.documents[kind+"/"+artifactID]
	if !ok {
		return nil, nil
	}
	return json.RawMessage(content), nil
}

func TestArtifactRegistry(t *testing.T) {
	t.Run("RegisteredInstrumentServedFromStore", func(t *testing.T) {
		store := &fakeStore{objects: map[string]string{
			"questionnaires/phq-9": `{"resourceType":"Questionnaire","id":"phq-9"}`,
		}}
		catalog := &fakeCatalog{}
		reg := NewArtifactRegistry(store, catalog, []string{"phq-9"}, zap.NewNop())

		content, err := reg.QuestionnaireJSON(context.Background(), "phq-9")
		assert.NoError(t, err)
		assert.JSONEq(t, `{"resourceType":"Questionnaire","id":"phq-9"}`, string(content))
		assert.Zero(t, catalog.calls)
	})

	t.Run("UnregisteredInstrumentFallsThroughToCatalog", func(t *testing.T) {
		store := &fakeStore{objects: map[string]string{}}
		catalog := &fakeCatalog{documents: map[string]string{
			"questionnaires/audit-c": `{"resourceType":"Questionnaire","id":"audit-c"}`,
		}}
		reg := NewArtifactRegistry(store, catalog, []string{"phq-9"}, zap.NewNop())

		content, err := reg.QuestionnaireJSON(context.Background(), "audit-c")
		assert.NoError(t, err)
		assert.JSONEq(t, `{"resourceType":"Questionnaire","id":"audit-c"}`, string(content))
		assert.Equal(t, 1, catalog.calls)
	})

	t.Run("MissEverywhereIsAnError", func(t *testing.T) {
		reg := NewArtifactRegistry(&fakeStore{}, &fakeCatalog{}, []string{"phq-9"}, zap.NewNop())

		_, err := reg.QuestionnaireJSON(context.Background(), "unknown")
		assert.Error(t, err)
	})

	t.Run("StoreMissForRegisteredInstrumentTriesCatalog", func(t *testing.T) {
		catalog := &fakeCatalog{documents: map[string]string{
			"questionnaires/phq-9": `{"resourceType":"Questionnaire","id":"phq-9"}`,
		}}
		reg := NewArtifactRegistry(&fakeStore{}, catalog, []string{"phq-9"}, zap.NewNop())

		content, err := reg.QuestionnaireJSON(context.Background(), "phq-9")
		assert.NoError(t, err)
		assert.NotNil(t, content)
	})

	t.Run("ValueSetUsesFixedObjectName", func(t *testing.T) {
		store := &fakeStore{objects: map[string]string{
			"valuesets/valueset-db": `{"alcohol":["phq-9"]}`,
		}}
		reg := NewArtifactRegistry(store, &fakeCatalog{}, nil, zap.NewNop())

		content, err := reg.ValueSetJSON(context.Background())
		assert.NoError(t, err)
		assert.JSONEq(t, `{"alcohol":["phq-9"]}`, string(content))
	})

	t.Run("RegisteredInstrumentsReturnsCopy", func(t *testing.T) {
		reg := NewArtifactRegistry(&fakeStore{}, &fakeCatalog{}, []string{"phq-9", "audit-c"}, zap.NewNop())

		instruments := reg.RegisteredInstruments()
		assert.Equal(t, []string{"phq-9", "audit-c"}, instruments)
		instruments[0] = "mutated"
		assert.Equal(t, []string{"phq-9", "audit-c"}, reg.RegisteredInstruments())
	})
}

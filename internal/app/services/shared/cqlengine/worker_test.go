package cqlengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"screening-service/internal/pkg/constvars"
	"screening-service/internal/pkg/fhir_dto"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newEngineServer(t *testing.T, evaluateBody string) (*httptest.Server, *int32) {
	t.Helper()
	var evaluateCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/library", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/bundle", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/evaluate", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&evaluateCalls, 1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(evaluateBody))
	})
	return httptest.NewServer(mux), &evaluateCalls
}

func TestWorkerOrdering(t *testing.T) {
	server, _ := newEngineServer(t, `null`)
	defer server.Close()

	t.Run("EvaluateBeforeInitializeFails", func(t *testing.T) {
		worker := NewWorker(server.URL, 4, zap.NewNop())
		stop := worker.Start()
		defer stop()

		_, err := worker.Evaluate(context.Background(), "ScoreExpression")
		assert.Error(t, err)
	})

	t.Run("BundleBeforeInitializeFails", func(t *testing.T) {
		worker := NewWorker(server.URL, 4, zap.NewNop())
		stop := worker.Start()
		defer stop()

		err := worker.SubmitBundle(context.Background(), &fhir_dto.FHIRBundle{ResourceType: "Bundle"})
		assert.Error(t, err)
	})

	t.Run("FullSequenceSucceeds", func(t *testing.T) {
		worker := NewWorker(server.URL, 4, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx := context.Background()
		err := worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil)
		assert.NoError(t, err)

		err = worker.SubmitBundle(ctx, &fhir_dto.FHIRBundle{ResourceType: "Bundle"})
		assert.NoError(t, err)

		result, err := worker.Evaluate(ctx, "ScoreExpression")
		assert.NoError(t, err)
		assert.Nil(t, result)
	})
}

func TestWorkerEvaluate(t *testing.T) {
	t.Run("DecodesResult", func(t *testing.T) {
		server, _ := newEngineServer(t, `{"questionnaireId":"phq-9","status":"scheduled"}`)
		defer server.Close()

		worker := NewWorker(server.URL, 4, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx := context.Background()
		assert.NoError(t, worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil))
		assert.NoError(t, worker.SubmitBundle(ctx, &fhir_dto.FHIRBundle{ResourceType: "Bundle"}))

		result, err := worker.Evaluate(ctx, "PHQ9Applicable")
		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, "phq-9", result.QuestionnaireID)
		assert.Equal(t, "scheduled", result.Status)
	})

	t.Run("EmptyObjectResultIsNil", func(t *testing.T) {
		server, _ := newEngineServer(t, `{}`)
		defer server.Close()

		worker := NewWorker(server.URL, 4, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx := context.Background()
		assert.NoError(t, worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil))
		assert.NoError(t, worker.SubmitBundle(ctx, &fhir_dto.FHIRBundle{ResourceType: "Bundle"}))

		result, err := worker.Evaluate(ctx, "NothingDue")
		assert.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("ConcurrentEvaluationsAllComplete", func(t *testing.T) {
		server, calls := newEngineServer(t, `{"questionnaireId":"phq-9"}`)
		defer server.Close()

		worker := NewWorker(server.URL, 8, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx := context.Background()
		assert.NoError(t, worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil))
		assert.NoError(t, worker.SubmitBundle(ctx, &fhir_dto.FHIRBundle{ResourceType: "Bundle"}))

		done := make(chan error, 5)
		for i := 0; i < 5; i++ {
			go func() {
				_, err := worker.Evaluate(ctx, "PHQ9Applicable")
				done <- err
			}()
		}
		for i := 0; i < 5; i++ {
			assert.NoError(t, <-done)
		}
		assert.Equal(t, int32(5), atomic.LoadInt32(calls))
	})

	t.Run("InitializeMidFlightKeepsPassCorrelation", func(t *testing.T) {
		type engineCall struct {
			path          string
			correlationID string
		}
		var mu sync.Mutex
		var calls []engineCall
		record := func(r *http.Request) {
			mu.Lock()
			calls = append(calls, engineCall{r.URL.Path, r.Header.Get(constvars.HeaderRequestID)})
			mu.Unlock()
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/library", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/bundle", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.WriteHeader(http.StatusOK)
		})
		started := make(chan struct{}, 8)
		mux.HandleFunc("/evaluate", func(w http.ResponseWriter, r *http.Request) {
			started <- struct{}{}
			time.Sleep(20 * time.Millisecond)
			record(r)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"questionnaireId":"phq-9"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		worker := NewWorker(server.URL, 8, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx := context.Background()
		assert.NoError(t, worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil))
		assert.NoError(t, worker.SubmitBundle(ctx, &fhir_dto.FHIRBundle{ResourceType: "Bundle"}))

		evaluations := make(chan error, 8)
		for i := 0; i < 8; i++ {
			go func() {
				_, err := worker.Evaluate(ctx, "PHQ9Applicable")
				evaluations <- err
			}()
		}

		// The second pass arrives once all of the first pass's
		// evaluations are on the wire but before any has answered.
		for i := 0; i < 8; i++ {
			<-started
		}
		assert.NoError(t, worker.Initialize(ctx, json.RawMessage(`{}`), json.RawMessage(`{}`), nil))

		for i := 0; i < 8; i++ {
			assert.NoError(t, <-evaluations)
		}

		mu.Lock()
		defer mu.Unlock()
		var libraryIDs []string
		secondLibraryAt := -1
		for i, call := range calls {
			if call.path == "/library" {
				libraryIDs = append(libraryIDs, call.correlationID)
				secondLibraryAt = i
			}
		}
		assert.Len(t, libraryIDs, 2)
		assert.NotEqual(t, libraryIDs[0], libraryIDs[1])
		for i, call := range calls {
			if call.path != "/evaluate" {
				continue
			}
			assert.Equal(t, libraryIDs[0], call.correlationID)
			assert.Less(t, i, secondLibraryAt)
		}
	})

	t.Run("CancelledContextReturnsDeadlineError", func(t *testing.T) {
		server, _ := newEngineServer(t, `null`)
		defer server.Close()

		worker := NewWorker(server.URL, 1, zap.NewNop())
		stop := worker.Start()
		defer stop()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err := worker.Evaluate(ctx, "PHQ9Applicable")
		assert.Error(t, err)
	})
}

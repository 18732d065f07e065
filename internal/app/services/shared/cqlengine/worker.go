package cqlengine

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/app/models"
	"screening-service/internal/pkg/exceptions"
	"screening-service/internal/pkg/fhir_dto"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type engineState int

const (
	stateIdle engineState = iota
	stateInitialized
	stateBundleLoaded
)

func (s engineState) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateBundleLoaded:
		return "bundle-loaded"
	default:
		return "idle"
	}
}

type messageKind int

const (
	kindInitialize messageKind = iota
	kindSubmitBundle
	kindEvaluate
)

type engineReply struct {
	result *models.EvaluationResult
	err    error
}

type engineMessage struct {
	kind       messageKind
	ctx        context.Context
	library    json.RawMessage
	valueSets  json.RawMessage
	parameters map[string]interface{}
	bundle     *fhir_dto.FHIRBundle
	expression string
	done       chan engineReply
}

// Worker serializes engine state transitions through a single goroutine and
// bounded queue. Initialize and SubmitBundle are handled in order on the
// worker goroutine itself; Evaluate requests are admitted only once a bundle
// is loaded and then run concurrently since they do not mutate engine state.
// An Initialize waits for the previous pass's in-flight evaluations before
// resetting the engine, so overlapping passes never share state.
type Worker struct {
	engine        *remoteEngine
	logger        *zap.Logger
	requests      chan engineMessage
	quit          chan struct{}
	correlationID string
	state         engineState
	inFlight      sync.WaitGroup
}

func NewWorker(engineBaseUrl string, queueDepth int, logger *zap.Logger) *Worker {
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &Worker{
		engine:        newRemoteEngine(engineBaseUrl),
		logger:        logger,
		requests:      make(chan engineMessage, queueDepth),
		quit:          make(chan struct{}),
		correlationID: uuid.New().String(),
		state:         stateIdle,
	}
}

// Start launches the worker goroutine and returns a stop function.
func (w *Worker) Start() func() {
	go w.run()
	return func() { close(w.quit) }
}

func (w *Worker) run() {
	for {
		select {
		case <-w.quit:
			return
		case msg := <-w.requests:
			w.dispatch(msg)
		}
	}
}

func (w *Worker) dispatch(msg engineMessage) {
	switch msg.kind {
	case kindInitialize:
		// A new pass must not reset the engine while the previous pass
		// still has evaluations in flight. Overlapping passes therefore
		// serialize here, each under its own correlation id shared by
		// its bundle and evaluate calls.
		w.inFlight.Wait()
		w.correlationID = uuid.New().String()
		w.logger.Info("cql engine initialize",
			zap.String("correlationID", w.correlationID))
		err := w.engine.postLibrary(msg.ctx, w.correlationID, initializePayload{
			Library:    msg.library,
			ValueSets:  msg.valueSets,
			Parameters: msg.parameters,
		})
		if err == nil {
			w.state = stateInitialized
		} else {
			w.state = stateIdle
		}
		msg.done <- engineReply{err: err}

	case kindSubmitBundle:
		if w.state != stateInitialized && w.state != stateBundleLoaded {
			msg.done <- engineReply{err: exceptions.ErrEngineOrdering(nil, "bundle before initialize")}
			return
		}
		err := w.engine.postBundle(msg.ctx, w.correlationID, msg.bundle)
		if err == nil {
			w.state = stateBundleLoaded
		}
		msg.done <- engineReply{err: err}

	case kindEvaluate:
		if w.state != stateBundleLoaded {
			msg.done <- engineReply{err: exceptions.ErrEngineOrdering(nil, "evaluate before bundle: state "+w.state.String())}
			return
		}
		// Evaluations are reads against the loaded bundle. The admission
		// check happens on the worker goroutine; the HTTP round trip does
		// not, so sibling expressions overlap. The correlation id is
		// captured here because the next initialize rotates it.
		w.inFlight.Add(1)
		go w.evaluate(msg, w.correlationID)
	}
}

func (w *Worker) evaluate(msg engineMessage, correlationID string) {
	defer w.inFlight.Done()

	bodyBytes, err := w.engine.postEvaluate(msg.ctx, correlationID, msg.expression)
	if err != nil {
		msg.done <- engineReply{err: exceptions.ErrEvaluateExpression(err, msg.expression)}
		return
	}

	if len(bodyBytes) == 0 || string(bodyBytes) == "null" {
		msg.done <- engineReply{}
		return
	}

	result := new(models.EvaluationResult)
	if err := json.Unmarshal(bodyBytes, result); err != nil {
		msg.done <- engineReply{err: exceptions.ErrEvaluateExpression(err, msg.expression)}
		return
	}
	if result.QuestionnaireID == "" {
		msg.done <- engineReply{}
		return
	}

	msg.done <- engineReply{result: result}
}

func (w *Worker) submit(ctx context.Context, msg engineMessage) (engineReply, error) {
	msg.ctx = ctx
	msg.done = make(chan engineReply, 1)

	select {
	case w.requests <- msg:
	case <-ctx.Done():
		return engineReply{}, exceptions.ErrServerDeadlineExceeded(ctx.Err())
	}

	select {
	case reply := <-msg.done:
		return reply, nil
	case <-ctx.Done():
		return engineReply{}, exceptions.ErrServerDeadlineExceeded(ctx.Err())
	}
}

func (w *Worker) Initialize(ctx context.Context, library, valueSets json.RawMessage, parameters map[string]interface{}) error {
	reply, err := w.submit(ctx, engineMessage{
		kind:       kindInitialize,
		library:    library,
		valueSets:  valueSets,
		parameters: parameters,
	})
	if err != nil {
		return err
	}
	return reply.err
}

func (w *Worker) SubmitBundle(ctx context.Context, bundle *fhir_dto.FHIRBundle) error {
	reply, err := w.submit(ctx, engineMessage{kind: kindSubmitBundle, bundle: bundle})
	if err != nil {
		return err
	}
	return reply.err
}

func (w *Worker) Evaluate(ctx context.Context, expression string) (*models.EvaluationResult, error) {
	reply, err := w.submit(ctx, engineMessage{kind: kindEvaluate, expression: expression})
	if err != nil {
		return nil, err
	}
	return reply.result, reply.err
}

var _ contracts.CqlEvaluator = (*Worker)(nil)

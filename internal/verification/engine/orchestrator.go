package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/seacrew/crewdocs-backend/internal/verification/domain"
	"github.com/seacrew/crewdocs-backend/pkg/errors"
	"github.com/seacrew/crewdocs-backend/pkg/logger"
)

// TimedEngine pairs an engine with its per-call deadline
type TimedEngine struct {
	Engine  Engine
	Timeout time.Duration
}

// Outcome is the result of one engine's extraction attempt. TimedOut
// distinguishes "engine unavailable" from "engine errored" so callers
// can log and retry them differently.
type Outcome struct {
	Engine   string
	Kind     domain.EngineKind
	Raw      *domain.RawExtraction
	Err      error
	TimedOut bool
	Elapsed  time.Duration
}

// Succeeded reports whether this engine produced a usable extraction
func (o *Outcome) Succeeded() bool {
	return o.Err == nil && o.Raw != nil
}

// Orchestrator fans a document out to every registered engine
// concurrently with best-effort semantics: one engine failing or timing
// out never aborts the others. Stateless; safe for concurrent calls.
type Orchestrator struct {
	engines []TimedEngine
	log     *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given engines.
// Registration order is significant: it is the deterministic tie-break
// order used downstream by the merger.
func NewOrchestrator(log *logger.Logger, engines ...TimedEngine) *Orchestrator {
	return &Orchestrator{
		engines: engines,
		log:     log.WithComponent("orchestrator"),
	}
}

// ExtractAll runs every engine concurrently, each under its own
// deadline, and collects all outcomes in registration order. It returns
// an error only when zero engines succeed.
func (o *Orchestrator) ExtractAll(ctx context.Context, fileData []byte, docType domain.DocumentType) ([]Outcome, error) {
	if len(o.engines) == 0 {
		return nil, errors.ExtractionFailed(stderrors.New("no engines registered"))
	}

	outcomes := make([]Outcome, len(o.engines))
	var wg sync.WaitGroup

	for i, te := range o.engines {
		wg.Add(1)
		go func(i int, te TimedEngine) {
			defer wg.Done()
			outcomes[i] = o.runEngine(ctx, te, fileData, docType)
		}(i, te)
	}

	wg.Wait()

	succeeded := 0
	var failures []error
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			succeeded++
			continue
		}
		failures = append(failures, fmt.Errorf("%s: %w", outcomes[i].Engine, outcomes[i].Err))
	}

	if succeeded == 0 {
		return nil, errors.ExtractionFailed(stderrors.Join(failures...))
	}

	return outcomes, nil
}

func (o *Orchestrator) runEngine(ctx context.Context, te TimedEngine, fileData []byte, docType domain.DocumentType) Outcome {
	log := o.log.WithEngine(te.Engine.Name())
	start := time.Now()

	engineCtx, cancel := context.WithTimeout(ctx, te.Timeout)
	defer cancel()

	raw, err := te.Engine.Extract(engineCtx, fileData, docType)
	elapsed := time.Since(start)

	outcome := Outcome{
		Engine:  te.Engine.Name(),
		Kind:    te.Engine.Kind(),
		Raw:     raw,
		Elapsed: elapsed,
	}

	if err != nil {
		if stderrors.Is(engineCtx.Err(), context.DeadlineExceeded) {
			outcome.TimedOut = true
			outcome.Err = fmt.Errorf("%w after %s: %v", errors.ErrEngineTimeout, te.Timeout, err)
			log.Warn().
				Dur("timeout", te.Timeout).
				Msg("engine timed out")
		} else {
			outcome.Err = fmt.Errorf("%w: %v", errors.ErrEngineFailed, err)
			log.Warn().Err(err).
				Msg("engine failed")
		}
		return outcome
	}

	log.Info().
		Dur("elapsed", elapsed).
		Int("fields", len(raw.Fields)).
		Msg("engine extraction succeeded")

	return outcome
}

// Successes filters outcomes down to their successful raw extractions,
// preserving registration order.
func Successes(outcomes []Outcome) []*domain.RawExtraction {
	var raws []*domain.RawExtraction
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			raws = append(raws, outcomes[i].Raw)
		}
	}
	return raws
}

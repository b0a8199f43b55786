package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"propscan/adapters"
	"propscan/cache"
	"propscan/metrics"
	"propscan/models"
	"propscan/utils"
)

const (
	defaultSourceTimeout = 10 * time.Second
	defaultMinResults    = 1
)

// Source supplies already-fetched raw records for one provider.
type Source interface {
	Descriptor() adapters.SourceDescriptor
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

// SourceSpec places a Source in the chain with its own limits. Zero values
// fall back to the orchestrator defaults.
type SourceSpec struct {
	Source     Source
	Timeout    time.Duration
	MinResults int
}

// OrchestratorConfig is the configuration surface of a resolution pass.
type OrchestratorConfig struct {
	Sources           []SourceSpec
	DefaultTimeout    time.Duration
	DefaultMinResults int
	Concurrency       int
	Criteria          Criteria
}

// Mode selects whether a pass stops at the first satisfying source.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMerged Mode = "merged"
)

// Request tunes one pass. The zero value is a single-source pass using the
// configured criteria.
type Request struct {
	Mode                Mode
	Criteria            *Criteria
	ClearOnTotalFailure bool
}

// Phase is a state of the orchestrator's state machine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFetching Phase = "fetching"
	PhaseMerging  Phase = "merging"
	PhaseScoring  Phase = "scoring"
	PhaseComplete Phase = "complete"
	PhaseFailed   Phase = "failed"
)

// State is the current phase; SourceIndex is only meaningful while fetching.
type State struct {
	Phase       Phase
	SourceIndex int
}

func (s State) String() string {
	if s.Phase == PhaseFetching {
		return fmt.Sprintf("%s(%d)", s.Phase, s.SourceIndex)
	}
	return string(s.Phase)
}

// SourceAttempt records how one source in the chain fared.
type SourceAttempt struct {
	Index    int
	Source   string
	Accepted int
	Rejected int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a pass. Callers must check AllSourcesFailed.
type Result struct {
	Properties       []*models.CanonicalProperty
	Total            int
	Duplicates       int
	Rejected         int
	AllSourcesFailed bool
	Attempts         []SourceAttempt
	Transitions      []State
}

// Orchestrator walks the source chain, merges what it gets, runs the
// pipeline and publishes the scored set to the cache.
type Orchestrator struct {
	cfg      OrchestratorConfig
	pipeline *Pipeline
	cache    cache.Store
	logger   *utils.Logger
	metrics  *metrics.Metrics

	passMu sync.Mutex
	mu     sync.RWMutex
	state  State
}

// NewOrchestrator builds an Orchestrator. metrics may be nil.
func NewOrchestrator(cfg OrchestratorConfig, pipeline *Pipeline, store cache.Store, logger *utils.Logger, m *metrics.Metrics) *Orchestrator {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultSourceTimeout
	}
	if cfg.DefaultMinResults <= 0 {
		cfg.DefaultMinResults = defaultMinResults
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if pipeline == nil {
		pipeline = NewPipeline(nil, nil, nil)
	}
	if logger == nil {
		logger = utils.Discard()
	}
	return &Orchestrator{
		cfg:      cfg,
		pipeline: pipeline,
		cache:    store,
		logger:   logger,
		metrics:  m,
		state:    State{Phase: PhaseIdle},
	}
}

// State returns the current state of the state machine.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Resolve runs one pass. Source failures never surface as errors; the only
// error returned is the context's, when the caller cancels. On cancellation
// or total failure the cache keeps its previous snapshot, unless the request
// asks for it to be cleared on total failure.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (*Result, error) {
	o.passMu.Lock()
	defer o.passMu.Unlock()

	start := time.Now()
	res := &Result{}
	o.transition(res, State{Phase: PhaseIdle})

	mode := req.Mode
	if mode == "" {
		mode = ModeSingle
	}
	criteria := o.cfg.Criteria
	if req.Criteria != nil {
		criteria = *req.Criteria
	}

	o.logger.Info("[orchestrator] Pass starting: %d sources, mode=%s", len(o.cfg.Sources), mode)

	var candidates []*models.CanonicalProperty
	for i, spec := range o.cfg.Sources {
		if err := ctx.Err(); err != nil {
			return o.cancelled(res, err)
		}
		o.transition(res, State{Phase: PhaseFetching, SourceIndex: i})

		props, attempt := o.attempt(ctx, i, spec)
		res.Attempts = append(res.Attempts, attempt)
		res.Rejected += attempt.Rejected

		if attempt.Err != nil {
			o.logger.Warn("[orchestrator] Source %d (%s) failed: %v, trying next", i, attempt.Source, attempt.Err)
			continue
		}
		o.logger.Info("[orchestrator] Source %d (%s) yielded %d properties (%d rejected) in %v",
			i, attempt.Source, attempt.Accepted, attempt.Rejected, attempt.Duration.Truncate(time.Millisecond))

		candidates = append(candidates, props...)
		if mode != ModeMerged {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return o.cancelled(res, err)
	}

	if len(candidates) == 0 {
		res.AllSourcesFailed = true
		o.transition(res, State{Phase: PhaseFailed})
		o.logger.Error("[orchestrator] %v: %d sources attempted", models.ErrAllSourcesFailed, len(res.Attempts))
		if req.ClearOnTotalFailure && o.cache != nil {
			o.cache.ReplaceAll(nil)
		}
		o.metrics.ObservePass(time.Since(start), true)
		return res, nil
	}

	o.transition(res, State{Phase: PhaseMerging})
	merged, dups := o.merge(candidates)
	res.Duplicates = dups

	o.transition(res, State{Phase: PhaseScoring})
	if err := o.pipeline.ProcessAll(ctx, merged, o.cfg.Concurrency); err != nil {
		return o.cancelled(res, err)
	}

	ranked := Rank(merged)
	if o.cache != nil {
		o.cache.ReplaceAll(ranked)
	}
	for _, p := range ranked {
		o.metrics.IncrementGrade(string(p.Score.Grade))
	}

	res.Total = len(ranked)
	res.Properties = Filter(ranked, criteria)
	o.transition(res, State{Phase: PhaseComplete})
	o.metrics.ObservePass(time.Since(start), false)

	o.logger.Info("[orchestrator] Pass complete: %d scored, %d returned, %d duplicates, %d rejected (%v)",
		res.Total, len(res.Properties), res.Duplicates, res.Rejected, time.Since(start).Truncate(time.Millisecond))
	return res, nil
}

// attempt fetches and normalizes one source, classifying any failure.
func (o *Orchestrator) attempt(ctx context.Context, index int, spec SourceSpec) ([]*models.CanonicalProperty, SourceAttempt) {
	desc := spec.Source.Descriptor()
	attempt := SourceAttempt{Index: index, Source: desc.Name}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = o.cfg.DefaultTimeout
	}
	minResults := spec.MinResults
	if minResults <= 0 {
		minResults = o.cfg.DefaultMinResults
	}

	start := time.Now()
	records, err := fetchWithTimeout(ctx, spec.Source, timeout)
	var props []*models.CanonicalProperty
	if err == nil {
		var rejected int
		props, rejected, err = adapters.Normalize(records, desc)
		if err != nil {
			err = fmt.Errorf("%w: %w", models.ErrSourceUnavailable, err)
		}
		attempt.Rejected = rejected
		attempt.Accepted = len(props)
		o.metrics.AddRejected(desc.Name, rejected)
	}
	if err == nil && len(props) < minResults {
		err = fmt.Errorf("%w: %d usable records, need %d", models.ErrInsufficientResults, len(props), minResults)
	}
	attempt.Duration = time.Since(start)
	attempt.Err = err

	outcome := metrics.OutcomeSuccess
	switch {
	case errors.Is(err, models.ErrInsufficientResults):
		outcome = metrics.OutcomeInsufficient
	case err != nil:
		outcome = metrics.OutcomeUnavailable
	}
	o.metrics.ObserveSourceAttempt(desc.Name, outcome, attempt.Duration)

	if err != nil {
		return nil, attempt
	}
	return props, attempt
}

// fetchWithTimeout bounds a fetch even when the source ignores its context,
// and turns a panicking source into an error.
func fetchWithTimeout(ctx context.Context, src Source, timeout time.Duration) ([]models.RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fetched struct {
		records []models.RawRecord
		err     error
	}
	done := make(chan fetched, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetched{err: fmt.Errorf("malformed payload: %v", r)}
			}
		}()
		records, err := src.Fetch(ctx)
		done <- fetched{records: records, err: err}
	}()

	select {
	case f := <-done:
		if f.err != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, f.err)
		}
		return f.records, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrSourceUnavailable, ctx.Err())
	}
}

// merge resolves identities and drops later duplicates, so a property seen by
// an earlier source in the chain wins.
func (o *Orchestrator) merge(candidates []*models.CanonicalProperty) ([]*models.CanonicalProperty, int) {
	seen := utils.NewKeySet()
	ids := utils.NewKeySet()
	merged := make([]*models.CanonicalProperty, 0, len(candidates))
	dups := 0
	for _, p := range candidates {
		o.pipeline.Identity().Resolve(p)
		if !seen.Add(dedupeKey(p)) {
			dups++
			o.logger.Debug("[orchestrator] Duplicate %s from %s dropped", p.ResolvedID, p.Provenance.Source)
			continue
		}
		if ids.Contains(p.ResolvedID) {
			native := p.ResolvedID
			p.ResolvedID = ScopedID(p.Provenance.Source, native)
			if ids.Contains(p.ResolvedID) {
				p.ResolvedID = GenerateID(p.Provenance.Source, p.Address, p.Price, p.Specs.Sqft)
			}
			o.logger.Debug("[orchestrator] ID %s from %s already taken, using %s", native, p.Provenance.Source, p.ResolvedID)
		}
		ids.Add(p.ResolvedID)
		o.metrics.IncrementIdentity(string(p.Provenance.ResolutionOutcome))
		merged = append(merged, p)
	}
	return merged, dups
}

// dedupeKey is the ResolvedID for authoritative identities, which are
// trusted across providers. Any other identity only means something within
// the source that issued it.
func dedupeKey(p *models.CanonicalProperty) string {
	if p.Provenance.ResolutionOutcome == models.OutcomeAuthoritative {
		return p.ResolvedID
	}
	return p.Provenance.Source + "|" + p.ResolvedID
}

func (o *Orchestrator) cancelled(res *Result, err error) (*Result, error) {
	o.transition(res, State{Phase: PhaseFailed})
	o.logger.Warn("[orchestrator] Pass cancelled: %v, cache left unchanged", err)
	return res, err
}

func (o *Orchestrator) transition(res *Result, s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	res.Transitions = append(res.Transitions, s)
}

package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"propscan/models"
)

// Pipeline composes the per-property stages. Each stage depends on the output
// of the previous one, so a single property always runs identity, then
// estimation, then scoring. Different properties are independent.
type Pipeline struct {
	identity  *IdentityResolver
	estimator *Estimator
	scorer    *Scorer
}

// NewPipeline wires the given stages. Nil stages fall back to defaults.
func NewPipeline(identity *IdentityResolver, estimator *Estimator, scorer *Scorer) *Pipeline {
	if identity == nil {
		identity = NewIdentityResolver()
	}
	if estimator == nil {
		estimator = NewEstimator()
	}
	if scorer == nil {
		scorer = NewScorer()
	}
	return &Pipeline{identity: identity, estimator: estimator, scorer: scorer}
}

// Identity exposes the resolver so the merge step can dedupe before scoring.
func (pl *Pipeline) Identity() *IdentityResolver { return pl.identity }

// Process runs every stage over p in order.
func (pl *Pipeline) Process(p *models.CanonicalProperty) *models.CanonicalProperty {
	p = pl.identity.Resolve(p)
	p = pl.estimator.Estimate(p)
	return pl.scorer.Score(p)
}

// ProcessAll runs Process over props with at most concurrency properties in
// flight. It stops scheduling new work once ctx is done and returns ctx.Err().
func (pl *Pipeline) ProcessAll(ctx context.Context, props []*models.CanonicalProperty, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range props {
		if gctx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pl.Process(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

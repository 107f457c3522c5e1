package engine

import (
	"context"
	"fmt"
)

// StrategyKind selects the extraction strategy.
type StrategyKind string

const (
	StrategyAuthenticated StrategyKind = "authenticated"
	StrategyAnonymous     StrategyKind = "anonymous"
)

// Strategy runs a single (query, location) search on a prepared surface.
type Strategy interface {
	Name() string
	Run(ctx context.Context, surface Surface, ex Extractor, spec RunSpec) (Result, error)
}

// NewStrategy builds the strategy for kind. The choice is made once per
// scraper; only the authenticated strategy is implemented.
func NewStrategy(kind StrategyKind, opts Options, sink Sink, dedup Dedup) (Strategy, error) {
	switch kind {
	case "", StrategyAuthenticated:
		return NewController(opts, sink, dedup), nil
	case StrategyAnonymous:
		return nil, fmt.Errorf("strategy %q is not supported", kind)
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

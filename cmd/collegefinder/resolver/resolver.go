package resolver

import (
	"context"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/scorecard"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/rs/zerolog"
)

// Fetcher returns one page of upstream records for the delegable filters.
type Fetcher interface {
	Schools(ctx context.Context, queryParams map[string]string) (*scorecard.Page, error)
}

// Resolver turns Filters into the final record list: it delegates state and
// name upstream and applies the filters the upstream cannot express locally.
// It keeps no state between calls.
type Resolver struct {
	fetcher Fetcher
	log     zerolog.Logger
}

// Result is the outcome of one resolution.
type Result struct {
	Records  []college.Record
	Fetched  int     // records received before post-filtering
	Warnings []error // upstream shape warnings, see scorecard.ErrUnexpectedShape
}

func NewResolver(fetcher Fetcher, log zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve fetches one page for filters and post-filters it. Upstream failures
// are returned as *types.UpstreamError without a partial result.
func (r *Resolver) Resolve(ctx context.Context, filters types.Filters) (*Result, error) {
	if r.fetcher == nil {
		return nil, &types.ConfigurationError{Key: "upstream", Reason: "no upstream client configured"}
	}

	page, err := r.fetcher.Schools(ctx, UpstreamParams(filters))
	if err != nil {
		return nil, err
	}

	records := PostFilter(page.Records, filters)

	r.log.Debug().
		Object("filters", filters).
		Int("fetched", len(page.Records)).
		Int("kept", len(records)).
		Int("warnings", len(page.Warnings)).
		Msg("Resolved search")

	return &Result{
		Records:  records,
		Fetched:  len(page.Records),
		Warnings: page.Warnings,
	}, nil
}

// UpstreamParams returns the filters the upstream evaluates itself. Tuition
// and graduation rate are never delegated.
func UpstreamParams(filters types.Filters) map[string]string {
	params := make(map[string]string)
	if state, ok := filters.State(); ok {
		params[scorecard.ParamState] = state
	}
	if name, ok := filters.Name(); ok {
		params[scorecard.ParamName] = name
	}
	return params
}

package search

import (
	"context"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/question"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/resolver"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/rs/zerolog"
)

// Resolver resolves canonical filters to records.
type Resolver interface {
	Resolve(ctx context.Context, filters types.Filters) (*resolver.Result, error)
}

// Request is one user-initiated search: either free text or a structured
// form, plus the tuition mode selected alongside it.
type Request struct {
	Text string `json:"q" validate:"excluded_with=Form"`
	Form *Form  `json:"form,omitempty"`
	Mode string `json:"tuition_filter" validate:"tuitionmode"`
}

// Response is the outcome of a successful search.
type Response struct {
	Filters  types.Filters    `json:"filters"`
	Records  []college.Record `json:"results"`
	Fetched  int              `json:"fetched"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Service is the query entry point shared by the CLI and the HTTP API.
type Service struct {
	resolver Resolver
	log      zerolog.Logger
}

func NewService(r Resolver, log zerolog.Logger) *Service {
	return &Service{
		resolver: r,
		log:      log.With().Str("component", "search").Logger(),
	}
}

// Filters turns req into canonical filters without any network call.
// Free text is parsed and never fails; a form is validated and may fail with
// *types.InvalidFilterError.
func (s *Service) Filters(req Request) (types.Filters, error) {
	if req.Form != nil && req.Form.IsEmpty() {
		req.Form = nil
	}
	if err := requestValidate.Struct(req); err != nil {
		return types.Filters{}, validationError(err)
	}

	mode, _ := types.ParseTuitionMode(req.Mode)
	if req.Form != nil {
		return req.Form.Filters(mode)
	}

	filters := question.Parse(strings.TrimSpace(req.Text))
	return filters.WithMode(mode)
}

// Query validates req and resolves it.
func (s *Service) Query(ctx context.Context, req Request) (*Response, error) {
	filters, err := s.Filters(req)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Object("filters", filters).Bool("form", req.Form != nil).Msg("Running search")

	res, err := s.resolver.Resolve(ctx, filters)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Filters: filters,
		Records: res.Records,
		Fetched: res.Fetched,
	}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp, nil
}

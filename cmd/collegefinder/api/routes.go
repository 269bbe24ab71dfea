package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/render"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/search"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	// SessionHeader selects the search session a request belongs to. Requests
	// without it are not checked for staleness.
	SessionHeader = "X-Session-ID"
)

// CollegeRouter serves the college search over HTTP.
type CollegeRouter struct {
	service  *search.Service
	sessions *search.SessionRegistry
	metrics  *Metrics
	gatherer prometheus.Gatherer
	log      zerolog.Logger
}

// NewCollegeRouter wires the handlers. sessions may be nil, in which case
// every request runs as an independent search. Metrics are registered on reg.
func NewCollegeRouter(
	service *search.Service,
	sessions *search.SessionRegistry,
	reg *prometheus.Registry,
	log zerolog.Logger,
) *CollegeRouter {
	return &CollegeRouter{
		service:  service,
		sessions: sessions,
		metrics:  NewMetrics(reg),
		gatherer: reg,
		log:      log.With().Str("component", "api").Logger(),
	}
}

func (cr *CollegeRouter) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/colleges", cr.handleColleges)
	r.Get("/healthz", cr.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(cr.gatherer, promhttp.HandlerOpts{}))

	return r
}

type collegesResponse struct {
	Filters  types.Filters    `json:"filters"`
	Summary  string           `json:"summary"`
	Total    int              `json:"total"`
	Results  []college.Record `json:"results"`
	Warnings []string         `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (cr *CollegeRouter) handleColleges(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := requestFromQuery(r.URL.Query())

	var (
		resp *search.Response
		err  error
	)
	if id := r.Header.Get(SessionHeader); id != "" && cr.sessions != nil {
		resp, err = cr.sessions.Session(id).Query(r.Context(), req)
	} else {
		resp, err = cr.service.Query(r.Context(), req)
	}

	status := statusFor(err)
	cr.metrics.observe(status, time.Since(start))

	if err != nil {
		cr.respondWithError(w, r, status, err)
		return
	}

	results := resp.Records
	if results == nil {
		results = []college.Record{}
	}

	cr.log.Debug().
		Str("request_id", RequestIDFromContext(r.Context())).
		Object("filters", resp.Filters).
		Int("fetched", resp.Fetched).
		Int("total", len(results)).
		Msg("Search completed")

	respondWithJSON(w, http.StatusOK, collegesResponse{
		Filters:  resp.Filters,
		Summary:  render.Summary(resp.Filters),
		Total:    len(results),
		Results:  results,
		Warnings: resp.Warnings,
	})
}

func (cr *CollegeRouter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestFromQuery builds a search request. Any form parameter switches the
// request to the structured path; q alongside form parameters is rejected by
// validation.
func requestFromQuery(q url.Values) search.Request {
	req := search.Request{
		Text: q.Get("q"),
		Mode: q.Get("tuition_filter"),
	}

	form := search.Form{
		State:       q.Get("state"),
		MaxTuition:  q.Get("max_tuition"),
		GradRateMin: q.Get("grad_rate_min"),
		Name:        q.Get("name"),
	}
	if !form.IsEmpty() {
		req.Form = &form
	}
	return req
}

func statusFor(err error) int {
	var (
		invalid  *types.InvalidFilterError
		upstream *types.UpstreamError
		config   *types.ConfigurationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.As(err, &config):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (cr *CollegeRouter) respondWithError(w http.ResponseWriter, r *http.Request, status int, err error) {
	body := errorResponse{RequestID: RequestIDFromContext(r.Context())}

	var invalid *types.InvalidFilterError
	switch {
	case errors.As(err, &invalid):
		body.Error = invalid.Error()
		body.Field = invalid.Field
	case status == http.StatusConflict:
		body.Error = err.Error()
	case status == http.StatusBadGateway:
		body.Error = "the college data service is unavailable"
	default:
		body.Error = "the search service is misconfigured"
	}

	event := cr.log.Warn()
	if status >= http.StatusInternalServerError {
		event = cr.log.Error()
	}
	event.Err(err).
		Str("request_id", body.RequestID).
		Int("status", status).
		Msg("Search failed")

	respondWithJSON(w, status, body)
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(response)))
	w.WriteHeader(status)
	w.Write(response)
}

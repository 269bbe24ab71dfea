package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/resolver"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/search"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mu      sync.Mutex
	result  *resolver.Result
	err     error
	filters []types.Filters
}

func (f *fakeResolver) Resolve(_ context.Context, filters types.Filters) (*resolver.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filters)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(t *testing.T, r search.Resolver, withSessions bool) *httptest.Server {
	t.Helper()
	svc := search.NewService(r, zerolog.Nop())

	var sessions *search.SessionRegistry
	if withSessions {
		sessions = search.NewSessionRegistry(svc, search.RegistryConfig{TTL: time.Minute}, zerolog.Nop())
		t.Cleanup(sessions.Stop)
	}

	router := NewCollegeRouter(svc, sessions, prometheus.NewRegistry(), zerolog.Nop())
	srv := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, header http.Header, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestCollegesFreeText(t *testing.T) {
	fr := &fakeResolver{result: &resolver.Result{
		Records: []college.Record{{college.FieldID: 1.0, college.FieldName: "Duke University"}},
		Fetched: 3,
	}}
	srv := newTestServer(t, fr, false)

	var body struct {
		Filters map[string]any   `json:"filters"`
		Summary string           `json:"summary"`
		Total   int              `json:"total"`
		Results []map[string]any `json:"results"`
	}
	resp := getJSON(t, srv.URL+"/colleges?q=colleges+in+NC+under+20k&tuition_filter=out_state", nil, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	_, err := uuid.Parse(resp.Header.Get(RequestIDHeader))
	assert.NoError(t, err)

	assert.Equal(t, "NC", body.Filters["state"])
	assert.Equal(t, 20000.0, body.Filters["max_tuition"])
	assert.Equal(t, "out_state", body.Filters["tuition_filter"])
	assert.Equal(t, "Showing results for: Out-of-state tuition • ≤ $20,000 • State: NC", body.Summary)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Duke University", body.Results[0][college.FieldName])
}

func TestCollegesEmptyResultIsAList(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{result: &resolver.Result{}}, false)

	var body map[string]json.RawMessage
	resp := getJSON(t, srv.URL+"/colleges?q=anything", nil, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body["results"]))
	assert.JSONEq(t, `0`, string(body["total"]))
}

func TestCollegesForm(t *testing.T) {
	fr := &fakeResolver{result: &resolver.Result{}}
	srv := newTestServer(t, fr, false)

	resp := getJSON(t, srv.URL+"/colleges?state=ca&max_tuition=%2415%2C000&grad_rate_min=0.7", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, fr.filters, 1)

	state, _ := fr.filters[0].State()
	maxTuition, _ := fr.filters[0].MaxTuition()
	rate, _ := fr.filters[0].GradRateMin()
	assert.Equal(t, "CA", state)
	assert.Equal(t, 15000, maxTuition)
	assert.InDelta(t, 0.7, rate, 1e-9)
	assert.Equal(t, types.TuitionInState, fr.filters[0].TuitionMode())
}

func TestCollegesErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		err    error
		status int
		field  string
	}{
		{name: "unknown state", query: "state=XX&max_tuition=1000", status: http.StatusBadRequest, field: "state"},
		{name: "state without ceiling", query: "state=NC", status: http.StatusBadRequest, field: "max_tuition"},
		{name: "bad mode", query: "q=colleges&tuition_filter=cheap", status: http.StatusBadRequest, field: "tuition_filter"},
		{
			name:   "upstream",
			query:  "q=colleges",
			err:    &types.UpstreamError{Op: "schools", StatusCode: 503, Err: assert.AnError},
			status: http.StatusBadGateway,
		},
		{
			name:   "configuration",
			query:  "q=colleges",
			err:    &types.ConfigurationError{Key: "COLLEGE_SCORECARD_KEY", Reason: "not set"},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeResolver{result: &resolver.Result{}, err: tt.err}
			srv := newTestServer(t, fr, false)

			var body errorResponse
			resp := getJSON(t, srv.URL+"/colleges?"+tt.query, nil, &body)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.field, body.Field)
			assert.Equal(t, resp.Header.Get(RequestIDHeader), body.RequestID)
			if tt.status == http.StatusBadRequest {
				assert.Empty(t, fr.filters, "no upstream call for invalid input")
			}
			assert.NotContains(t, body.Error, "COLLEGE_SCORECARD_KEY")
		})
	}
}

// blockingResolver holds the first search until its context is cancelled.
type blockingResolver struct {
	started chan struct{}
	calls   int
	mu      sync.Mutex
}

func (b *blockingResolver) Resolve(ctx context.Context, _ types.Filters) (*resolver.Result, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()

	if first {
		close(b.started)
		<-ctx.Done()
		return nil, &types.UpstreamError{Op: "schools", Err: ctx.Err()}
	}
	return &resolver.Result{Records: []college.Record{{college.FieldID: 2.0}}}, nil
}

func TestCollegesSupersededSearch(t *testing.T) {
	br := &blockingResolver{started: make(chan struct{})}
	srv := newTestServer(t, br, true)
	header := http.Header{SessionHeader: []string{"user-1"}}

	firstStatus := make(chan int, 1)
	go func() {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/colleges?q=first", nil)
		req.Header = header.Clone()
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			firstStatus <- 0
			return
		}
		resp.Body.Close()
		firstStatus <- resp.StatusCode
	}()

	select {
	case <-br.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first search never started")
	}

	var body map[string]any
	resp := getJSON(t, srv.URL+"/colleges?q=second", header, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	select {
	case status := <-firstStatus:
		assert.Equal(t, http.StatusConflict, status)
	case <-time.After(5 * time.Second):
		t.Fatal("first search never returned")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{result: &resolver.Result{}}, false)

	var health map[string]string
	resp := getJSON(t, srv.URL+"/healthz", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	getJSON(t, srv.URL+"/colleges?q=x", nil, nil)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	buf := new(strings.Builder)
	_, err = io.Copy(buf, metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `collegefinder_searches_total{status="200"} 1`)
}

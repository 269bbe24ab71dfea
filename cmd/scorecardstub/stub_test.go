package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/resolver"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/scorecard"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStub(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	stub, err := newStubServer(schoolsFixture, apiKey, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(stub.routes())
	t.Cleanup(srv.Close)
	return srv
}

func getSchools(t *testing.T, url string) (int, schoolsResponse) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body schoolsResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestStubFiltersByStateAndName(t *testing.T) {
	srv := newTestStub(t, "")

	status, body := getSchools(t, srv.URL+"/v1/schools?api_key=k&school.state=nc")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, body.Metadata.Total)

	status, body = getSchools(t, srv.URL+"/v1/schools?api_key=k&school.name=california")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, body.Metadata.Total)
}

func TestStubProjectsAndPages(t *testing.T) {
	srv := newTestStub(t, "")

	status, body := getSchools(t, srv.URL+"/v1/schools?api_key=k&fields=id,school.name,missing.field&per_page=3&page=1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 8, body.Metadata.Total)
	require.Len(t, body.Results, 3)
	for _, school := range body.Results {
		assert.Len(t, school, 3)
		assert.Contains(t, school, "missing.field")
		assert.Nil(t, school["missing.field"])
	}
}

func TestStubRejectsWrongKey(t *testing.T) {
	srv := newTestStub(t, "right")

	status, _ := getSchools(t, srv.URL+"/v1/schools?api_key=wrong")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = getSchools(t, srv.URL+"/v1/schools")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestStubServesTheScorecardClient(t *testing.T) {
	srv := newTestStub(t, "right")

	client, err := scorecard.NewClient(scorecard.Config{BaseURL: srv.URL + "/v1/schools", APIKey: "right"}, zerolog.Nop())
	require.NoError(t, err)

	filters, err := types.NewFilters(types.WithState("NC"), types.WithMaxTuition(10000))
	require.NoError(t, err)

	res, err := resolver.NewResolver(client, zerolog.Nop()).Resolve(context.Background(), filters)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Fetched)
	var names []string
	for _, rec := range res.Records {
		name, _ := rec.String(college.FieldName)
		names = append(names, name)
	}
	assert.Equal(t, []string{
		"University of North Carolina at Chapel Hill",
		"North Carolina State University at Raleigh",
		"Piedmont Community College",
	}, names)
}

func TestStubUpstreamErrorOnBadKey(t *testing.T) {
	srv := newTestStub(t, "right")

	client, err := scorecard.NewClient(scorecard.Config{BaseURL: srv.URL + "/v1/schools", APIKey: "wrong"}, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Schools(context.Background(), nil)
	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusForbidden, upstream.StatusCode)
}

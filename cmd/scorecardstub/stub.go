package main

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

//go:embed fixtures/schools.json
var schoolsFixture []byte

const defaultPerPage = 20

type metadata struct {
	Page    int `json:"page"`
	Total   int `json:"total"`
	PerPage int `json:"per_page"`
}

type schoolsResponse struct {
	Metadata metadata         `json:"metadata"`
	Results  []map[string]any `json:"results"`
}

// stubServer answers /schools the way the College Scorecard API does for the
// parameters the client sends.
type stubServer struct {
	schools []map[string]any
	apiKey  string // empty accepts any key
	log     zerolog.Logger
}

func newStubServer(fixture []byte, apiKey string, log zerolog.Logger) (*stubServer, error) {
	var schools []map[string]any
	if err := json.Unmarshal(fixture, &schools); err != nil {
		return nil, err
	}
	return &stubServer{schools: schools, apiKey: apiKey, log: log}, nil
}

func (s *stubServer) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/v1/schools", s.handleSchools).Methods(http.MethodGet)
	r.HandleFunc("/v1/schools.json", s.handleSchools).Methods(http.MethodGet)
	return r
}

func (s *stubServer) handleSchools(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("api_key")
	if key == "" || (s.apiKey != "" && key != s.apiKey) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error": map[string]string{"code": "API_KEY_INVALID", "message": "An invalid api_key was supplied."},
		})
		return
	}

	state := strings.ToUpper(strings.TrimSpace(q.Get("school.state")))
	name := strings.ToLower(strings.TrimSpace(q.Get("school.name")))

	matches := make([]map[string]any, 0, len(s.schools))
	for _, school := range s.schools {
		if state != "" && !strings.EqualFold(str(school["school.state"]), state) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(str(school["school.name"])), name) {
			continue
		}
		matches = append(matches, school)
	}

	perPage := intParam(q.Get("per_page"), defaultPerPage)
	page := intParam(q.Get("page"), 0)
	start := min(page*perPage, len(matches))
	end := min(start+perPage, len(matches))

	var fields []string
	if f := q.Get("fields"); f != "" {
		fields = strings.Split(f, ",")
	}

	resp := schoolsResponse{
		Metadata: metadata{Page: page, Total: len(matches), PerPage: perPage},
		Results:  make([]map[string]any, 0, end-start),
	}
	for _, school := range matches[start:end] {
		resp.Results = append(resp.Results, project(school, fields))
	}

	s.log.Info().
		Str("state", state).
		Str("name", name).
		Int("total", len(matches)).
		Int("returned", len(resp.Results)).
		Msg("Served schools")

	writeJSON(w, http.StatusOK, resp)
}

// project keeps the requested fields. A requested field the fixture lacks
// comes back as null, like the real API.
func project(school map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return school
	}
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f] = school[f]
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

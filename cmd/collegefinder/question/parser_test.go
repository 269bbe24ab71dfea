package question

import (
	"encoding/json"
	"testing"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot flattens Filters into the JSON view so tests can diff them.
func snapshot(t *testing.T, f types.Filters) map[string]any {
	t.Helper()
	b, err := json.Marshal(f)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want map[string]any
	}{
		{
			text: "under 20k",
			want: map[string]any{"tuition_filter": "in_state", "max_tuition": 20000.0},
		},
		{
			text: "above 70%",
			want: map[string]any{"tuition_filter": "in_state", "grad_rate_min": 0.7},
		},
		{
			text: "university Duke in NC",
			want: map[string]any{"tuition_filter": "in_state", "state": "NC", "name": "Duke"},
		},
		{
			text: "Colleges in CA under $30,000 with graduation rate over 60%",
			want: map[string]any{"tuition_filter": "in_state", "state": "CA", "max_tuition": 30000.0, "grad_rate_min": 0.6},
		},
		{
			text: "cheap schools TX 15.5k",
			want: map[string]any{"tuition_filter": "in_state", "state": "TX", "max_tuition": 15500.0},
		},
		{
			text: "community college in WA",
			want: map[string]any{"tuition_filter": "in_state", "state": "WA"},
		},
		{
			text: "university of North Carolina state nc >= 85 %",
			want: map[string]any{"tuition_filter": "in_state", "state": "NC", "name": "North Carolina", "grad_rate_min": 0.85},
		},
		{
			text: "Texas A&M university",
			want: map[string]any{"tuition_filter": "in_state"},
		},
		{
			text: "college Texas A&M under 12000",
			want: map[string]any{"tuition_filter": "in_state", "name": "Texas A&M", "max_tuition": 12000.0},
		},
		{
			text: "",
			want: map[string]any{"tuition_filter": "in_state"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := snapshot(t, Parse(tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParseStateNeverMisfires(t *testing.T) {
	for _, text := range []string{
		"to 20000",
		"colleges that cost up to 20000 dollars",
		"best schools of the west",
		"ANC programs",
		"in the mountains",
		"state of mind",
		"me or hi or ok",
		"XX ZZ QQ",
		"under 20k",
	} {
		t.Run(text, func(t *testing.T) {
			_, ok := Parse(text).State()
			assert.False(t, ok)
		})
	}
}

func TestParseStatePrecedence(t *testing.T) {
	// the explicit marker wins over an earlier bare token
	state, ok := Parse("NY schools in VT").State()
	require.True(t, ok)
	assert.Equal(t, "VT", state)

	// an invalid marker falls through to the bare token scan
	state, ok = Parse("colleges in xx, maybe OR").State()
	require.True(t, ok)
	assert.Equal(t, "OR", state)

	// punctuation around a bare token is ignored
	state, ok = Parse("Duke (NC)?").State()
	require.True(t, ok)
	assert.Equal(t, "NC", state)
}

func TestParseTuition(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"under 20000", 20000, true},
		{"$20,000", 20000, true},
		{"$ 20,000.60", 20001, true},
		{"20K", 20000, true},
		{"20 k", 20000, true},
		{"1.25k", 1250, true},
		{"20 kids", 20, true},
		{"above 70%", 0, false},
		{"above 70 % under 9k", 9000, true},
		{"no numbers here", 0, false},
		{"K12 schools", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Parse(tt.text).MaxTuition()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGradRate(t *testing.T) {
	rate, ok := Parse("over 100%").GradRateMin()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, rate, 1e-9)

	rate, ok = Parse(">=5%").GradRateMin()
	assert.True(t, ok)
	assert.InDelta(t, 0.05, rate, 1e-9)

	_, ok = Parse("above 150%").GradRateMin()
	assert.False(t, ok, "percentages above 100 are rejected")

	_, ok = Parse("graduation 70%").GradRateMin()
	assert.False(t, ok, "a bare percentage has no comparator")
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"20000", 20000, true},
		{" $20,000 ", 20000, true},
		{"20k", 20000, true},
		{"0", 0, true},
		{"-5", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"k", 0, false},
		{"twenty", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDollars(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

// TuitionMode selects which tuition figure(s) a ceiling applies to.
type TuitionMode string

const (
	TuitionInState  TuitionMode = "in_state"
	TuitionOutState TuitionMode = "out_state"
	TuitionBoth     TuitionMode = "both" // in-state AND out-of-state under the ceiling
)

// DefaultTuitionMode applies whenever no mode was chosen explicitly, including
// free-text searches that found a ceiling but no mode.
const DefaultTuitionMode = TuitionInState

// ParseTuitionMode maps the wire form of a mode. The empty string yields
// DefaultTuitionMode.
func ParseTuitionMode(s string) (TuitionMode, bool) {
	switch TuitionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultTuitionMode, true
	case TuitionInState:
		return TuitionInState, true
	case TuitionOutState:
		return TuitionOutState, true
	case TuitionBoth:
		return TuitionBoth, true
	}
	return "", false
}

// Label is the human readable name of the mode.
func (m TuitionMode) Label() string {
	switch m {
	case TuitionOutState:
		return "Out-of-state"
	case TuitionBoth:
		return "Both"
	default:
		return "In-state"
	}
}

// Filters is the canonical filter record of a single search. The zero value
// has every filter absent and the default tuition mode. Values are immutable;
// use NewFilters or WithMode to obtain a different one.
type Filters struct {
	state       *string
	maxTuition  *int
	tuitionMode TuitionMode
	gradRateMin *float64
	name        *string
}

// Option sets one field while building Filters.
type Option func(*Filters) error

// NewFilters builds Filters from opts. It fails with *InvalidFilterError when
// an option would break an invariant.
func NewFilters(opts ...Option) (Filters, error) {
	var f Filters
	for _, opt := range opts {
		if err := opt(&f); err != nil {
			return Filters{}, err
		}
	}
	return f, nil
}

func WithState(code string) Option {
	return func(f *Filters) error {
		normalized, ok := NormalizeState(code)
		if !ok {
			return &InvalidFilterError{Field: "state", Value: code, Reason: "not a recognized USPS state code"}
		}
		f.state = &normalized
		return nil
	}
}

func WithMaxTuition(dollars int) Option {
	return func(f *Filters) error {
		if dollars < 0 {
			return &InvalidFilterError{Field: "max_tuition", Value: fmt.Sprint(dollars), Reason: "must not be negative"}
		}
		f.maxTuition = &dollars
		return nil
	}
}

func WithTuitionMode(mode TuitionMode) Option {
	return func(f *Filters) error {
		parsed, ok := ParseTuitionMode(string(mode))
		if !ok {
			return &InvalidFilterError{Field: "tuition_filter", Value: string(mode), Reason: "must be in_state, out_state or both"}
		}
		f.tuitionMode = parsed
		return nil
	}
}

func WithGradRateMin(rate float64) Option {
	return func(f *Filters) error {
		if math.IsNaN(rate) || rate < 0 || rate > 1 {
			return &InvalidFilterError{Field: "grad_rate_min", Value: fmt.Sprint(rate), Reason: "must be between 0 and 1"}
		}
		f.gradRateMin = &rate
		return nil
	}
}

// WithName sets the name hint. A blank name leaves the filter absent.
func WithName(name string) Option {
	return func(f *Filters) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil
		}
		f.name = &name
		return nil
	}
}

func (f Filters) State() (string, bool) {
	if f.state == nil {
		return "", false
	}
	return *f.state, true
}

func (f Filters) MaxTuition() (int, bool) {
	if f.maxTuition == nil {
		return 0, false
	}
	return *f.maxTuition, true
}

func (f Filters) TuitionMode() TuitionMode {
	if f.tuitionMode == "" {
		return DefaultTuitionMode
	}
	return f.tuitionMode
}

func (f Filters) GradRateMin() (float64, bool) {
	if f.gradRateMin == nil {
		return 0, false
	}
	return *f.gradRateMin, true
}

func (f Filters) Name() (string, bool) {
	if f.name == nil {
		return "", false
	}
	return *f.name, true
}

// WithMode returns a copy of f using mode.
func (f Filters) WithMode(mode TuitionMode) (Filters, error) {
	if err := WithTuitionMode(mode)(&f); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// IsEmpty reports whether no filter is set. The tuition mode alone does not
// count as a filter.
func (f Filters) IsEmpty() bool {
	return f.state == nil && f.maxTuition == nil && f.gradRateMin == nil && f.name == nil
}

type filtersJSON struct {
	State       *string     `json:"state,omitempty"`
	MaxTuition  *int        `json:"max_tuition,omitempty"`
	TuitionMode TuitionMode `json:"tuition_filter"`
	GradRateMin *float64    `json:"grad_rate_min,omitempty"`
	Name        *string     `json:"name,omitempty"`
}

func (f Filters) MarshalJSON() ([]byte, error) {
	return json.Marshal(filtersJSON{
		State:       f.state,
		MaxTuition:  f.maxTuition,
		TuitionMode: f.TuitionMode(),
		GradRateMin: f.gradRateMin,
		Name:        f.name,
	})
}

// MarshalZerologObject lets Filters be logged with Object("filters", f).
func (f Filters) MarshalZerologObject(e *zerolog.Event) {
	e.Str("tuition_filter", string(f.TuitionMode()))
	if v, ok := f.State(); ok {
		e.Str("state", v)
	}
	if v, ok := f.MaxTuition(); ok {
		e.Int("max_tuition", v)
	}
	if v, ok := f.GradRateMin(); ok {
		e.Float64("grad_rate_min", v)
	}
	if v, ok := f.Name(); ok {
		e.Str("name", v)
	}
}

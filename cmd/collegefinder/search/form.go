package search

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/question"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/go-playground/validator/v10"
)

// requestValidate checks requests before anything is sent upstream.
var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	requestValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = requestValidate.RegisterValidation("usps", validateUSPS)
	_ = requestValidate.RegisterValidation("dollars", validateDollars)
	_ = requestValidate.RegisterValidation("fraction", validateFraction)
	_ = requestValidate.RegisterValidation("tuitionmode", validateTuitionMode)
}

// Form holds the structured filters as typed into the advanced search form.
// Every field is optional, except that a state needs a tuition ceiling.
type Form struct {
	State       string `json:"state" validate:"usps"`
	MaxTuition  string `json:"max_tuition" validate:"required_with=State,dollars"`
	GradRateMin string `json:"grad_rate_min" validate:"fraction"`
	Name        string `json:"name"`
}

// IsEmpty reports whether no form field was filled in.
func (f Form) IsEmpty() bool {
	return strings.TrimSpace(f.State) == "" &&
		strings.TrimSpace(f.MaxTuition) == "" &&
		strings.TrimSpace(f.GradRateMin) == "" &&
		strings.TrimSpace(f.Name) == ""
}

// Filters converts a validated form.
func (f Form) Filters(mode types.TuitionMode) (types.Filters, error) {
	opts := []types.Option{types.WithTuitionMode(mode), types.WithName(f.Name)}

	if state := strings.TrimSpace(f.State); state != "" {
		opts = append(opts, types.WithState(state))
	}
	if raw := strings.TrimSpace(f.MaxTuition); raw != "" {
		dollars, ok := question.ParseDollars(raw)
		if !ok {
			return types.Filters{}, &types.InvalidFilterError{Field: "max_tuition", Value: raw, Reason: "must be a non-negative dollar amount"}
		}
		opts = append(opts, types.WithMaxTuition(dollars))
	}
	if raw := strings.TrimSpace(f.GradRateMin); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Filters{}, &types.InvalidFilterError{Field: "grad_rate_min", Value: raw, Reason: "must be a number between 0 and 1"}
		}
		opts = append(opts, types.WithGradRateMin(rate))
	}
	return types.NewFilters(opts...)
}

func validateUSPS(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	return types.IsStateCode(s)
}

func validateDollars(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, ok := question.ParseDollars(s)
	return ok
}

func validateFraction(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(v) && v >= 0 && v <= 1
}

func validateTuitionMode(fl validator.FieldLevel) bool {
	_, ok := types.ParseTuitionMode(fl.Field().String())
	return ok
}

var validationReasons = map[string]string{
	"usps":          "not a recognized USPS state code",
	"dollars":       "must be a non-negative dollar amount",
	"fraction":      "must be a number between 0 and 1",
	"tuitionmode":   "must be in_state, out_state or both",
	"required_with": "required when state is set",
	"excluded_with": "cannot be combined with structured filters",
}

// validationError maps the first validator failure to *types.InvalidFilterError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	reason, ok := validationReasons[fe.Tag()]
	if !ok {
		reason = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return &types.InvalidFilterError{
		Field:  fe.Field(),
		Value:  fmt.Sprint(fe.Value()),
		Reason: reason,
	}
}

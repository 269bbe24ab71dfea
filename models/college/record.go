package college

import (
	"encoding/json"
)

// Field names of the College Scorecard projection requested for every search.
const (
	FieldID                = "id"
	FieldName              = "school.name"
	FieldCity              = "school.city"
	FieldState             = "school.state"
	FieldURL               = "school.school_url"
	FieldTuitionInState    = "latest.cost.tuition.in_state"
	FieldTuitionOutOfState = "latest.cost.tuition.out_of_state"
	FieldAdmissionRate     = "latest.admissions.admission_rate"
	FieldStudentSize       = "latest.student.size"
	FieldGraduationRate    = "latest.completion.rate_suppressed.overall"
	FieldMedianDebt        = "latest.aid.median_debt.completers"
	FieldPellGrantRate     = "latest.aid.pell_grant_rate"
	FieldMedianEarnings    = "latest.earnings.10_yrs_after_entry.median"
)

// Fields is the projection sent upstream, in request order.
var Fields = []string{
	FieldID,
	FieldName,
	FieldCity,
	FieldState,
	FieldURL,
	FieldTuitionInState,
	FieldTuitionOutOfState,
	FieldAdmissionRate,
	FieldStudentSize,
	FieldGraduationRate,
	FieldMedianDebt,
	FieldPellGrantRate,
	FieldMedianEarnings,
}

// Record is one institution as returned upstream: dotted field name to a
// string, number or nil. A missing or nil field is a suppressed statistic and
// is never read as zero.
type Record map[string]any

// Number returns the numeric value of field. ok is false when the field is
// missing, null or not a number.
func (r Record) Number(field string) (float64, bool) {
	switch v := r[field].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String returns the string value of field. ok is false when the field is
// missing, null or not a string.
func (r Record) String(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

package resolver

import (
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
)

// PostFilter keeps the records that satisfy the tuition ceiling and the
// graduation-rate floor of filters. Upstream order is preserved and the
// input slice is not modified. A null statistic never satisfies a filter.
func PostFilter(records []college.Record, filters types.Filters) []college.Record {
	maxTuition, hasTuition := filters.MaxTuition()
	minRate, hasRate := filters.GradRateMin()
	mode := filters.TuitionMode()

	kept := make([]college.Record, 0, len(records))
	for _, rec := range records {
		if hasTuition && !withinTuition(rec, maxTuition, mode) {
			continue
		}
		if hasRate && !meetsGradRate(rec, minRate) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func withinTuition(rec college.Record, max int, mode types.TuitionMode) bool {
	switch mode {
	case types.TuitionOutState:
		return atMost(rec, college.FieldTuitionOutOfState, max)
	case types.TuitionBoth:
		return atMost(rec, college.FieldTuitionInState, max) &&
			atMost(rec, college.FieldTuitionOutOfState, max)
	default:
		return atMost(rec, college.FieldTuitionInState, max)
	}
}

func atMost(rec college.Record, field string, max int) bool {
	v, ok := rec.Number(field)
	return ok && v <= float64(max)
}

func meetsGradRate(rec college.Record, min float64) bool {
	v, ok := rec.Number(college.FieldGraduationRate)
	return ok && v >= min
}

// Package question turns a free-text college question into types.Filters.
//
// Parsing is an ordered set of independent rules, one per filter. Within a
// rule the first acceptable match wins; rules never consume text from each
// other, so their order only matters for documentation:
//
//  1. state: an explicit "in XX" / "state XX" marker, else the first bare
//     upper-case token that is a USPS code
//  2. tuition ceiling: "$20,000", "20k", "under 20000"; never a percentage
//  3. graduation rate floor: "above 70%", "over 70%", ">= 70%"
//  4. name hint: the words after "college" or "university"
package question

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"golang.org/x/exp/slices"
)

var (
	// stateMarkerRe matches "in NC" or "state nc". The code still has to pass
	// the allow-list.
	stateMarkerRe = regexp.MustCompile(`(?i)\b(?:in|state)\s+([a-z]{2})\b`)

	// tuitionRe matches an amount with an optional "under" or "$" prefix,
	// thousands separators, decimals and a k suffix.
	tuitionRe = regexp.MustCompile(`(?i)(?:\bunder\s*)?(?:\$\s*)?\b(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?(?:\s*(k))?\b`)

	// gradRateRe matches "above 70%", "over 70 %", ">=70%".
	gradRateRe = regexp.MustCompile(`(?i)(?:\babove|\bover|>=?)\s*(\d{1,3})\s*%`)

	// nameRe captures the run of letters, '&', '-' and spaces after the keyword.
	nameRe = regexp.MustCompile(`(?i)\b(?:college|university)\s+([a-z][a-z&\-\s]*)`)
)

// nameStopWords end a name hint; they introduce the next filter.
var nameStopWords = []string{"in", "state", "under", "above", "over", "below", "with", "for", "near", "that", "where"}

// maxDollars bounds a tuition ceiling.
const maxDollars = math.MaxInt32

// Parse extracts filters from text. It never fails: anything it cannot
// recognise is left absent.
func Parse(text string) types.Filters {
	var opts []types.Option

	if state, ok := extractState(text); ok {
		opts = append(opts, types.WithState(state))
	}
	if dollars, ok := extractTuition(text); ok {
		opts = append(opts, types.WithMaxTuition(dollars))
	}
	if rate, ok := extractGradRate(text); ok {
		opts = append(opts, types.WithGradRateMin(rate))
	}
	if name, ok := extractName(text); ok {
		opts = append(opts, types.WithName(name))
	}

	f, err := types.NewFilters(opts...)
	if err != nil {
		// every extractor validates its own value
		return types.Filters{}
	}
	return f
}

func extractState(text string) (string, bool) {
	for _, m := range stateMarkerRe.FindAllStringSubmatch(text, -1) {
		if code, ok := types.NormalizeState(m[1]); ok {
			return code, true
		}
	}

	for _, field := range strings.Fields(text) {
		token := strings.Trim(field, `.,;:!?()[]"'`)
		if len(token) != 2 || token != strings.ToUpper(token) {
			continue
		}
		if types.IsStateCode(token) {
			return token, true
		}
	}
	return "", false
}

func extractTuition(text string) (int, bool) {
	for _, idx := range tuitionRe.FindAllStringSubmatchIndex(text, -1) {
		if followedByPercent(text, idx[1]) {
			continue
		}
		amount := text[idx[2]:idx[3]]
		if idx[4] >= 0 {
			amount += text[idx[4]:idx[5]]
		}
		if idx[6] >= 0 {
			amount += "k"
		}
		return ParseDollars(amount)
	}
	return 0, false
}

func followedByPercent(text string, end int) bool {
	rest := strings.TrimLeft(text[end:], " \t")
	return strings.HasPrefix(rest, "%")
}

func extractGradRate(text string) (float64, bool) {
	m := gradRateRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct > 100 {
		return 0, false
	}
	return math.Round(float64(pct)) / 100, true
}

func extractName(text string) (string, bool) {
	m := nameRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	var words []string
	for _, w := range strings.Fields(m[1]) {
		if slices.Contains(nameStopWords, strings.ToLower(w)) {
			break
		}
		words = append(words, w)
	}
	for len(words) > 0 && (strings.EqualFold(words[0], "of") || strings.EqualFold(words[0], "the")) {
		words = words[1:]
	}
	if len(words) == 0 {
		return "", false
	}
	return strings.Join(words, " "), true
}

// ParseDollars reads a whole-dollar amount such as "20000", "$20,000",
// "20.5k" or "20 K". Separators are dropped, a k suffix multiplies by 1000
// and the result is rounded. Negative, non-finite and out of range amounts
// are rejected.
func ParseDollars(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "$")
	s = strings.NewReplacer(",", "", " ", "").Replace(s)

	multiplier := 1.0
	if strings.HasSuffix(s, "k") {
		multiplier = 1000
		s = strings.TrimSuffix(s, "k")
	}
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	v = math.Round(v * multiplier)
	if v < 0 || v > maxDollars {
		return 0, false
	}
	return int(v), true
}

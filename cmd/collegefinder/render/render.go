// Package render formats search results for a terminal. Null statistics are
// shown as "N/A"; no value is ever invented for them.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const notAvailable = "N/A"

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Width(24)
)

// Summary describes the active filters, e.g.
// "Showing results for: In-state tuition • ≤ $20,000 • State: NC".
func Summary(f types.Filters) string {
	parts := []string{f.TuitionMode().Label() + " tuition"}

	if v, ok := f.MaxTuition(); ok {
		parts = append(parts, "≤ $"+humanize.Comma(int64(v)))
	}
	if v, ok := f.State(); ok {
		parts = append(parts, "State: "+v)
	}
	if v, ok := f.GradRateMin(); ok {
		parts = append(parts, fmt.Sprintf("Grad ≥ %.0f%%", v*100))
	}
	if v, ok := f.Name(); ok {
		parts = append(parts, "Name: "+v)
	}
	return "Showing results for: " + strings.Join(parts, " • ")
}

// Cards writes one card per record, or a notice when there are none.
func Cards(w io.Writer, records []college.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No colleges found.")
		return err
	}
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, Card(rec)); err != nil {
			return err
		}
	}
	return nil
}

// Card renders a single record.
func Card(rec college.Record) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(text(rec, college.FieldName)))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(location(rec)))
	if u, ok := rec.String(college.FieldURL); ok && u != "" {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(u))
	}
	b.WriteString("\n")

	rows := [][2]string{
		{"In-state tuition", money(rec, college.FieldTuitionInState)},
		{"Out-of-state tuition", money(rec, college.FieldTuitionOutOfState)},
		{"Admission rate", percent(rec, college.FieldAdmissionRate)},
		{"Graduation rate", percent(rec, college.FieldGraduationRate)},
		{"Students", count(rec, college.FieldStudentSize)},
		{"Median debt", money(rec, college.FieldMedianDebt)},
		{"Pell grant rate", percent(rec, college.FieldPellGrantRate)},
		{"Earnings after 10 years", money(rec, college.FieldMedianEarnings)},
	}
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(row[0]))
		b.WriteString(row[1])
	}

	return cardStyle.Render(b.String())
}

func location(rec college.Record) string {
	city, hasCity := rec.String(college.FieldCity)
	state, hasState := rec.String(college.FieldState)
	switch {
	case hasCity && hasState:
		return city + ", " + state
	case hasCity:
		return city
	case hasState:
		return state
	}
	return notAvailable
}

func text(rec college.Record, field string) string {
	if s, ok := rec.String(field); ok && s != "" {
		return s
	}
	return notAvailable
}

func money(rec college.Record, field string) string {
	v, ok := rec.Number(field)
	if !ok {
		return notAvailable
	}
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func percent(rec college.Record, field string) string {
	v, ok := rec.Number(field)
	if !ok {
		return notAvailable
	}
	return fmt.Sprintf("%.0f%%", v*100)
}

func count(rec college.Record, field string) string {
	v, ok := rec.Number(field)
	if !ok {
		return notAvailable
	}
	return humanize.Comma(int64(math.Round(v)))
}

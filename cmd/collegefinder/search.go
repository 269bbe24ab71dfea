package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SanteonNL/collegefinder/cmd/collegefinder/output"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/render"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/search"
	"github.com/SanteonNL/collegefinder/cmd/collegefinder/types"
	"github.com/SanteonNL/collegefinder/models/college"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	form      search.Form
	mode      string
	asJSON    bool
	outputDir string
}

// searchOutput is what --json prints and --output-dir saves.
type searchOutput struct {
	Question string           `json:"question,omitempty"`
	Filters  types.Filters    `json:"filters"`
	Summary  string           `json:"summary"`
	Total    int              `json:"total"`
	Results  []college.Record `json:"results"`
	Warnings []string         `json:"warnings,omitempty"`
}

func newSearchCmd(a *app) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [question]",
		Short: "Search colleges with a question or with filter flags",
		Long: `Search colleges either with a plain-English question or with filter flags.

Examples:
  collegefinder search "colleges in NC under $20k with graduation rate above 70%"
  collegefinder search --state CA --max-tuition 15000 --mode out_state
  collegefinder search "university of Michigan" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.form.State, "state", "", "Two-letter state code")
	flags.StringVar(&opts.form.MaxTuition, "max-tuition", "", "Tuition ceiling in dollars, e.g. 20000, $20,000 or 20k")
	flags.StringVar(&opts.form.GradRateMin, "grad-rate-min", "", "Minimum graduation rate between 0 and 1")
	flags.StringVar(&opts.form.Name, "name", "", "Part of the college name")
	flags.StringVar(&opts.mode, "mode", string(types.DefaultTuitionMode), "Tuition compared against the ceiling: in_state, out_state or both")
	flags.BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Also save the result and a log file under this directory")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, question string, opts *searchOptions) error {
	log := a.log
	if opts.outputDir != "" {
		om, err := output.NewOutputManager(opts.outputDir, a.stderr, a.cfg.LogLevel)
		if err != nil {
			return errors.Wrap(err, "creating output directory")
		}
		defer om.Close()
		log = om.GetLogger()
		defer func() {
			log.Info().Str("dir", om.GetBaseDir()).Msg("Search output saved")
		}()

		return a.search(cmd, question, opts, func(out searchOutput) error {
			path, err := om.WriteToJSON(out, "search")
			if err != nil {
				return errors.Wrap(err, "saving search result")
			}
			log.Debug().Str("file", path).Msg("Wrote search result")
			return nil
		}, log)
	}
	return a.search(cmd, question, opts, nil, log)
}

func (a *app) search(cmd *cobra.Command, question string, opts *searchOptions, save func(searchOutput) error, log zerolog.Logger) error {
	req := search.Request{Text: question, Mode: opts.mode}
	if !opts.form.IsEmpty() {
		form := opts.form
		req.Form = &form
	}

	svc, err := a.newService(log)
	if err != nil {
		return err
	}

	resp, err := svc.Query(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := searchOutput{
		Question: question,
		Filters:  resp.Filters,
		Summary:  render.Summary(resp.Filters),
		Total:    len(resp.Records),
		Results:  resp.Records,
		Warnings: resp.Warnings,
	}
	if out.Results == nil {
		out.Results = []college.Record{}
	}

	if save != nil {
		if err := save(out); err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	fmt.Fprintln(a.stdout, out.Summary)
	for _, w := range out.Warnings {
		fmt.Fprintln(a.stdout, "warning:", w)
	}
	fmt.Fprintf(a.stdout, "%d colleges\n\n", out.Total)
	return render.Cards(a.stdout, out.Results)
}

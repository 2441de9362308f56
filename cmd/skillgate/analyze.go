package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/HendryAvila/skillgate/internal/engine"
	"github.com/HendryAvila/skillgate/internal/router"
	"github.com/HendryAvila/skillgate/internal/server"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/HendryAvila/skillgate/internal/triggers"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

type analyzeOptions struct {
	phase      string
	activities []string
	detail     string
	asJSON     bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <request...>",
		Short: "Route one request and print the recommended skills",
		Long: `Score a request against the trigger table and print the ranked skills.

Examples:
  skillgate analyze "create requirements for login"
  skillgate analyze --phase planning --activity "created requirements" let us start coding
  skillgate analyze --json "critical error in production"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			comps, err := server.Build(cfg, nil, logger)
			if err != nil {
				return err
			}

			var update *router.SessionUpdate
			if opts.phase != "" || len(opts.activities) > 0 {
				update = &router.SessionUpdate{CurrentPhase: opts.phase, Activities: opts.activities}
			}

			res, err := comps.Engine.Analyze(cmd.Context(), strings.Join(args, " "), update)
			if err != nil {
				return err
			}
			return printAnalysis(cmd.OutOrStdout(), res, opts)
		},
	}

	cmd.Flags().StringVar(&opts.phase, "phase", "", "Current workflow phase")
	cmd.Flags().StringSliceVar(&opts.activities, "activity", nil, "Recent activity (repeatable)")
	cmd.Flags().StringVar(&opts.detail, "detail", templates.DetailStandard, "Detail level: summary, standard, full")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the raw analysis as JSON")

	return cmd
}

func printAnalysis(w io.Writer, res *engine.AnalysisResult, opts *analyzeOptions) error {
	if opts.asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling analysis: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	if top, ok := res.Top(); ok {
		fmt.Fprintf(w, "%s %s %s\n\n", green("→"), green(top.Skill), confidenceLabel(top.MatchResult))
	} else {
		fmt.Fprintf(w, "%s\n\n", yellow("No skill matched this request."))
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return err
	}
	out, err := renderer.Render(templates.Recommendations, templates.RecommendationsData{
		Result: res,
		Detail: templates.ParseDetailLevel(opts.detail),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

// confidenceLabel colours a match by how sure the router is.
func confidenceLabel(m triggers.MatchResult) string {
	label := fmt.Sprintf("(%d%%, %s)", m.Confidence, m.Tier)
	switch {
	case m.Priority == triggers.PriorityHigh:
		return red(label + " urgent")
	case m.Confidence >= 85:
		return green(label)
	case m.Confidence >= 70:
		return yellow(label)
	}
	return gray(label)
}

package main

import (
	"fmt"

	"github.com/HendryAvila/skillgate/internal/server"
	"github.com/HendryAvila/skillgate/internal/templates"
	"github.com/spf13/cobra"
)

func newSkillsCmd(root *rootOptions) *cobra.Command {
	var detail string

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List the skill catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			comps, err := server.Build(cfg, nil, logger)
			if err != nil {
				return err
			}
			renderer, err := templates.NewRenderer()
			if err != nil {
				return err
			}
			out, err := renderer.Render(templates.SkillIndex, templates.SkillIndexData{
				Skills: comps.Engine.Skills(),
				Detail: templates.ParseDetailLevel(detail),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&detail, "detail", templates.DetailStandard, "Detail level: summary, standard, full")
	return cmd
}

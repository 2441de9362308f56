package main

import (
	"io"
	"log/slog"

	"github.com/HendryAvila/skillgate/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "skillgate",
		Short: "Skill router and context budget manager for AI coding tools",
		Long: `skillgate routes requests to the right skill, gates workflow phases
(spec-forge → planning → work → review) and keeps loaded skills and files
under a token ceiling.

Add it to your AI tool's MCP config:

  {
    "mcpServers": {
      "skillgate": {
        "command": "skillgate",
        "args": ["serve"]
      }
    }
  }

Configuration is read from --config (or $SKILLGATE_CONFIG) and SKILLGATE_*
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newSkillsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load resolves the configuration and a stderr logger for a command.
func (o *rootOptions) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

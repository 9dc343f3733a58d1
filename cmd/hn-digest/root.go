package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/hn-digest/internal/config"
)

// Значения флага --format.
const (
	formatBoth = "both"
)

// options — разобранные флаги командной строки.
type options struct {
	days       int
	workers    int
	format     string
	out        string
	configPath string
	refresh    bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "hn-digest",
		Short: "Collect Hacker News front pages for the last N days into a report",
		Long: "hn-digest fetches the front page for each of the last N days, caches the stories " +
			"in a database and writes a report sorted by score.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.days < 1 {
				return fmt.Errorf("--days must be >= 1, got %d", opts.days)
			}
			if opts.workers < 0 {
				return fmt.Errorf("--workers must be >= 1, got %d", opts.workers)
			}

			formats, err := formatsFor(opts.format)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, formats)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.days, "days", 0, "number of days to collect, starting from today (required)")
	f.IntVar(&opts.workers, "workers", 0, "how many days are fetched at once (default from config)")
	f.StringVar(&opts.format, "format", "", "report format: json, html, both or table (default from config)")
	f.StringVar(&opts.out, "out", "", "directory for report files (default from config)")
	f.StringVar(&opts.configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached days and fetch everything again")
	_ = cmd.MarkFlagRequired("days")

	return cmd
}

// formatsFor переводит значение --format в список форматов отчёта.
// Пустое значение означает «как в конфиге» и возвращает nil.
func formatsFor(flag string) ([]string, error) {
	switch flag {
	case "":
		return nil, nil
	case config.FormatJSON, config.FormatHTML, config.FormatTable:
		return []string{flag}, nil
	case formatBoth:
		return []string{config.FormatJSON, config.FormatHTML}, nil
	default:
		return nil, fmt.Errorf("--format must be one of json, html, both, table: got %q", flag)
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/config"
	"github.com/lezoo/keep/internal/logtail"
)

type syncSummary struct {
	Categories int `json:"categories"`
	Notes      int `json:"notes"`
	Tasks      int `json:"tasks"`
}

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh categories, notes and tasks and update the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Sync(ctx); err != nil {
					return err
				}
				snap := a.State.Snapshot()
				out := syncSummary{Categories: len(snap.Categories), Notes: len(snap.Notes), Tasks: len(snap.Tasks)}
				return e.render(out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "Synced %d categories, %d notes, %d tasks\n", out.Categories, out.Notes, out.Tasks)
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newTUICmd(e *env) *cobra.Command {
	var prefsPath string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return app.RunTUI(e.ctx, a, prefsPath)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/keep/prefs.toml)")
	return cmd
}

func newLogsCmd(e *env) *cobra.Command {
	var lines int
	var level string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the end of the keep log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}
			out, err := logtail.Read(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			if level = strings.TrimSpace(level); level != "" {
				minLevel, err := logrus.ParseLevel(level)
				if err != nil {
					return fmt.Errorf("invalid --level: %w", err)
				}
				out = logtail.Filter(out, minLevel)
			}
			return e.render(nonNil(out), func(w io.Writer) {
				for _, line := range out {
					_, _ = fmt.Fprintln(w, line)
				}
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines (0 for all)")
	cmd.Flags().StringVar(&level, "level", "", "minimum level to show (debug, info, warn, error)")
	return cmd
}

func (e *env) config() (config.Config, error) {
	if e.appOpts.Config != nil {
		return *e.appOpts.Config, nil
	}
	return config.Load(e.configPath)
}

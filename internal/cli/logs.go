package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/five82/almanac/internal/config"
	"github.com/five82/almanac/internal/logtail"
)

func newLogsCmd(opts *options) *cobra.Command {
	var (
		lines int
		level string
		path  string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the newest lines of almanac's own log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			min, err := logtail.ParseSeverity(level)
			if err != nil {
				return err
			}
			if path == "" {
				cfg, err := config.Load(opts.ConfigPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				path = cfg.LogPath()
			}
			all, err := logtail.Read(path, 0)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			kept := logtail.Filter(all, min)
			if lines > 0 && len(kept) > lines {
				kept = kept[len(kept)-lines:]
			}
			if !color.NoColor {
				kept = logtail.ColorizeLines(kept)
			}
			if len(kept) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(out(cmd), strings.Join(kept, "\n"))
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "how many lines to print (0 for all)")
	cmd.Flags().StringVarP(&level, "level", "l", "info", "minimum severity: info, warning, error")
	cmd.Flags().StringVar(&path, "file", "", "log file (default <log_dir>/almanac.INFO)")
	return cmd
}

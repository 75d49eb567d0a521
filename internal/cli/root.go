package cli

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/almanac/internal/app"
	"github.com/five82/almanac/internal/config"
)

// ErrNotTerminal is returned when the TUI is requested without a terminal.
var ErrNotTerminal = errors.New("stdout is not a terminal; run a subcommand (see almanac --help)")

// options are the persistent flags shared by every command.
type options struct {
	ConfigPath string
	PrefsPath  string
	PollEvery  int
	JSON       bool

	// isTerminal is swapped in tests.
	isTerminal func() bool
}

// NewRootCmd builds the almanac command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "almanac",
		Short:         "Terminal client for to-dos, recipes, notes, check-ins and weight",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  almanac

  # Scriptable commands
  almanac list todos --filter status=0 --sort deadline:asc
  almanac done todos 42
  almanac add weight 71.4
  almanac summary
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.isTerminal() {
				return ErrNotTerminal
			}
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.ConfigPath,
				PrefsPath:  opts.PrefsPath,
				PollEvery:  opts.PollEvery,
			})
		},
	}

	// glog registers its flags on the standard flag set; expose them here
	// and mark that set parsed so glog does not complain.
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !flag.Parsed() {
			_ = flag.CommandLine.Parse(nil)
		}
		useConfigLogDir(opts.ConfigPath)
		return nil
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/almanac/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/almanac/prefs.toml)")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&opts.PollEvery, "poll", 0, "refresh interval in seconds for the TUI")

	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newFlagCmd(opts, "done", "Mark an item done", true))
	cmd.AddCommand(newFlagCmd(opts, "undone", "Mark an item not done", false))
	cmd.AddCommand(newFlagCmd(opts, "star", "Star an item", true))
	cmd.AddCommand(newFlagCmd(opts, "unstar", "Remove an item's star", false))
	cmd.AddCommand(newRemoveCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newWeightCmd(opts))
	cmd.AddCommand(newCheckinCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))

	return cmd
}

// useConfigLogDir points glog at the configured log_dir unless --log_dir
// was given. glog opens its files on the first write, so this must run
// before anything logs.
func useConfigLogDir(configPath string) {
	f := flag.Lookup("log_dir")
	if f == nil || f.Value.String() != "" {
		return
	}
	cfg, err := config.Load(configPath)
	if err != nil || cfg.LogDir == "" {
		return
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return
	}
	_ = flag.Set("log_dir", cfg.LogDir)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

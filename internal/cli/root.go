package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/palmgate/palmgate/internal/adapter"
	"github.com/palmgate/palmgate/internal/api"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

// repository is what commands need from the API client.
type repository interface {
	domain.Repository
	Ping(ctx context.Context) error
}

// app carries state shared by every command. The function fields are
// replaced in tests.
type app struct {
	version string

	loadConfig      func() (*adapter.Config, error)
	saveToken       func(token string) error
	newRepo         func(cfg *adapter.Config, logger *slog.Logger) repository
	stdinIsTerminal func() bool
	stdoutIsTTY     func() bool

	cfg    *adapter.Config
	logger *slog.Logger
	closer io.Closer
}

func defaultApp(version string) *app {
	return &app{
		version:    version,
		loadConfig: adapter.LoadConfig,
		saveToken:  adapter.SaveToken,
		newRepo: func(cfg *adapter.Config, logger *slog.Logger) repository {
			return api.NewClient(cfg.Server.URL, cfg.Server.Token, logger,
				api.WithTimeout(cfg.HTTP.Timeout),
				api.WithRetries(cfg.HTTP.MaxRetries, 0),
			)
		},
		stdinIsTerminal: func() bool { return isTerminal(os.Stdin) },
		stdoutIsTTY:     func() bool { return isTerminal(os.Stdout) },
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive UI.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(defaultApp(version))
}

func newRootCmd(a *app) *cobra.Command {
	var (
		debug    bool
		pageSize int
		onError  string
	)

	cmd := &cobra.Command{
		Use:           "palmgate",
		Short:         "Terminal client for the palm access admin API",
		Long:          "palmgate browses users, devices, verifications and the rest of the admin API page by page.",
		Version:       a.version,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("page-size") {
				cfg.Paging.PageSize = pageSize
			}
			if cmd.Flags().Changed("on-error") {
				cfg.Paging.OnError = onError
			}
			if debug {
				cfg.Logging.Level = "DEBUG"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg

			logger, closer, err := adapter.SetupLogger(cfg.Logging)
			if err != nil {
				// Fall back to null logger if file logging fails
				logger, closer = adapter.NullLogger(), io.NopCloser(nil)
			}
			a.logger, a.closer = logger, closer
			slog.SetDefault(logger)
			logger.Info("starting palmgate", "version", a.version, "command", cmd.Name())
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, a)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().IntVar(&pageSize, "page-size", paging.DefaultPageSize,
		fmt.Sprintf("items per page (%d-%d, overrides paging.page_size)", paging.MinPageSize, paging.MaxPageSize))
	cmd.PersistentFlags().StringVar(&onError, "on-error", "preserve",
		"what a failed page does to paging: preserve (retry on scroll) or stop")

	cmd.AddCommand(newListCmd(a), newResourcesCmd(), newTokenCmd(a), newPrefsCmd(a), newVersionCmd(a))
	return cmd
}

// pagingOptions builds controller options from the loaded config.
func (a *app) pagingOptions() []paging.Option {
	return []paging.Option{
		paging.WithPageSize(a.cfg.Paging.PageSize),
		paging.WithFailurePolicy(a.cfg.FailurePolicy()),
		paging.WithLogger(a.logger),
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("palmgate %s\n", a.version)
			return nil
		},
	}
}

const rootCmdExample = `  # Browse every list interactively
  palmgate

  # Store the API token (read without echo)
  palmgate token

  # Print the first three pages of offline devices
  palmgate list devices --status offline --max-pages 3

  # Fetch users and payments at once, keeping rows that mention "acme"
  palmgate list users payments --grep acme`

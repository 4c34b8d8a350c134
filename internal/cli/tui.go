package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/palmgate/palmgate/internal/adapter"
	"github.com/palmgate/palmgate/internal/store"
	"github.com/palmgate/palmgate/internal/tui"
)

// runTUI starts the interactive browser.
func runTUI(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	if !cfg.IsConfigured() {
		return fmt.Errorf("not configured: set server.url in %s/config.yaml and run 'palmgate token'", adapter.ConfigDir())
	}
	if !a.stdoutIsTTY() {
		return errors.New("standard output is not a terminal; use 'palmgate list' instead")
	}

	logger := a.logger
	prefs, err := store.NewPrefsStore(cfg.Store.Path, cfg.Server.URL)
	if err != nil {
		// Fall back to in-memory preferences if the database is locked or unreadable
		logger.Warn("preferences unavailable, using memory only", "error", err)
		prefs, _ = store.NewPrefsStore("", cfg.Server.URL)
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Error("failed to close preferences", "error", err)
		}
	}()

	ctx := cmd.Context()
	repo := a.newRepo(cfg, logger)
	model := tui.NewModel(ctx, tui.Deps{
		Repo:      repo,
		Pinger:    repo,
		Prefs:     prefs,
		Logger:    logger,
		Paging:    a.pagingOptions(),
		Prefetch:  cfg.Paging.Prefetch,
		ServerURL: cfg.Server.URL,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/palmgate/palmgate/internal/adapter"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
)

const tokenCheckTimeout = 10 * time.Second

func newTokenCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store the API token in the config file",
		Long: `Read an API token and save it to config.yaml.

On a terminal the token is read without echo. Otherwise the first line of
standard input is used, so it can be piped in.`,
		Example: `  palmgate token
  echo "$PALMGATE_TOKEN" | palmgate token --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, a, check)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify the token against the server before saving")
	return cmd
}

func runToken(cmd *cobra.Command, a *app, check bool) error {
	token, err := readToken(cmd, a)
	if err != nil {
		return err
	}

	if check {
		if a.cfg.Server.URL == "" {
			return errors.New("--check needs server.url to be configured")
		}
		cfg := *a.cfg
		cfg.Server.Token = token
		ctx, cancel := context.WithTimeout(cmd.Context(), tokenCheckTimeout)
		defer cancel()
		if err := a.newRepo(&cfg, a.logger).Ping(ctx); err != nil {
			if errors.Is(err, domain.ErrAuthFailed) {
				return errors.New("token rejected by server; not saved")
			}
			return fmt.Errorf("could not verify token: %s", paging.Message(err))
		}
		cmd.PrintErrln("Token accepted by server")
	}

	if err := a.saveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	a.logger.Info("token saved")
	cmd.Printf("Token saved to %s/config.yaml\n", adapter.ConfigDir())
	return nil
}

// readToken reads the token without echo from a terminal, or the first line
// of a piped stdin.
func readToken(cmd *cobra.Command, a *app) (string, error) {
	var raw string
	if a.stdinIsTerminal() {
		cmd.PrintErr("API token: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.PrintErrln()
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		raw = string(b)
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		raw = line
	}

	token := strings.TrimSpace(raw)
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

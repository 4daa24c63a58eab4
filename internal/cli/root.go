// Package cli is the ftclient command line: one-shot commands and an
// interactive chat shell over the same controllers.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/app"
	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

// CLI carries the streams and global flags shared by every command.
type CLI struct {
	stdin  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	errMu  sync.Mutex

	verbose    bool
	ephemeral  bool
	configPath string
	envFile    string
	assumeYes  bool

	// logger overrides the config-built logger; tests set zap.NewNop().
	logger *zap.Logger
}

// NewRootCommand builds the ftclient command tree.
func NewRootCommand(stdin io.Reader, out, errOut io.Writer) *cobra.Command {
	return newCLI(stdin, out, errOut).rootCommand()
}

func newCLI(stdin io.Reader, out, errOut io.Writer) *CLI {
	return &CLI{stdin: stdin, in: bufio.NewReader(stdin), out: out, errOut: errOut}
}

func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ftclient",
		Short: "Chat-driven personal finance tracker",
		Long: `ftclient talks to the finance tracker backend.

Log a transaction by describing it in plain words, attach receipt images for
OCR, and browse accounts, transactions and plan usage.

Quick Start:
  ftclient register                 # create an account
  ftclient chat                     # interactive chat shell
  ftclient send "spent 2000 on lunch"
  ftclient dashboard                # weekly totals, accounts, recent`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(c.stdin)
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&c.ephemeral, "ephemeral", false, "Keep the session in memory only")
	flags.StringVar(&c.configPath, "config", config.DefaultFilePath(), "Path to the YAML config file")
	flags.StringVar(&c.envFile, "env-file", ".env", "Path to a .env file")

	root.AddCommand(
		c.newLoginCommand(),
		c.newRegisterCommand(),
		c.newLogoutCommand(),
		c.newWhoamiCommand(),
		c.newSendCommand(),
		c.newChatCommand(),
		c.newDashboardCommand(),
		c.newTransactionsCommand(),
		c.newDeleteCommand(),
		c.newAccountsCommand(),
		c.newPlanCommand(),
		c.newUpgradeCommand(),
		c.newStatsCommand(),
	)
	return root
}

// withApp assembles the client, restores the session and runs fn.
func (c *CLI) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := config.LoadDotEnv(c.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}
	file, err := config.ReadFile(c.configPath)
	if err != nil {
		return err
	}
	cfg := config.Load(file)
	if c.verbose {
		cfg.LogLevel = "debug"
	}

	a, err := app.New(ctx, cfg, app.Options{
		Ephemeral:  c.ephemeral,
		Confirmer:  c,
		NoticeSink: c.printNotice,
		Logger:     c.appLogger(cfg.LogLevel),
	})
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if err := a.Start(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

// printNotice may run on background goroutines.
// appLogger returns the test override, or a logger sharing errOut with notices.
func (c *CLI) appLogger(level string) *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	return observability.NewLogger(level, errWriter{c})
}

// errWriter serializes log lines with notices on errOut.
type errWriter struct{ c *CLI }

func (w errWriter) Write(p []byte) (int, error) {
	w.c.errMu.Lock()
	defer w.c.errMu.Unlock()
	return w.c.errOut.Write(p)
}

func (c *CLI) printNotice(n ui.Notice) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	fmt.Fprintln(c.errOut, ui.RenderNotice(n))
}

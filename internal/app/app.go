// Package app wires configuration, logging, the job source and the
// scheduler into the crontab command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/cobra"

	"crontab/internal/adapter/cli"
	"crontab/internal/adapter/source"
	"crontab/internal/adapter/telegram"
	"crontab/internal/config"
	"crontab/internal/console"
	"crontab/internal/crontab"
	"crontab/internal/executor"
	"crontab/internal/platform/logger"
	"crontab/internal/shared"
)

// App wires application components.
type App struct {
	cfg    config.Config
	log    *slog.Logger
	level  *slog.LevelVar
	sender telegram.Sender
	stdout io.Writer
	stderr io.Writer
}

// Option configures App.
type Option func(*App)

// WithOutput redirects command output and console logs.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout, a.stderr = stdout, stderr
	}
}

// WithTelegram replaces the Telegram client built from the bot token.
func WithTelegram(s telegram.Sender) Option {
	return func(a *App) { a.sender = s }
}

// New loads configuration and creates the logger.
func New(opts ...Option) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a := &App{cfg: cfg, level: new(slog.LevelVar), stdout: os.Stdout, stderr: os.Stderr}
	if cfg.Telegram.Token != "" {
		a.sender = &lazyBot{token: cfg.Telegram.Token}
	}
	for _, o := range opts {
		o(a)
	}
	a.log = logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: logger.ConsoleLevel(cfg.Cron.Verbosity, cfg.Log.ConsoleLevel),
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "crontab",
		Console:      a.stderr,
		Level:        a.level,
	})
	return a, nil
}

// Close flushes the log file.
func (a *App) Close() error {
	return logger.Close(a.log)
}

// Execute runs the command line given by args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.Root()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root.ExecuteContext(ctx)
}

// Main runs the command line and returns the process exit code.
func Main(ctx context.Context, args []string, opts ...Option) int {
	a, err := New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crontab: %v\n", err)
		return 1
	}
	defer a.Close()

	err = a.Execute(ctx, args)
	if code, ok := console.ExitCode(err); ok {
		return code
	}
	if shared.IsFatal(err) {
		fmt.Fprintf(a.stderr, "crontab: configuration error: %v\n", err)
	} else {
		fmt.Fprintf(a.stderr, "crontab: %v\n", err)
	}
	return 1
}

// Root builds the command tree. Internal jobs resolve against a fresh copy of
// it, so every built-in is also a job command.
func (a *App) Root() *cobra.Command {
	var (
		quiet   bool
		verbose int
	)
	root := &cobra.Command{
		Use:           "crontab",
		Short:         "Minimal cron-style job scheduler",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if cli.HasOutput(ctx) {
				return
			}
			v := a.cfg.Cron.Verbosity
			if quiet || verbose > 0 {
				v = console.FromFlags(quiet, verbose)
			}
			a.level.Set(logger.ParseLevel(logger.ConsoleLevel(v, a.cfg.Log.ConsoleLevel), slog.LevelInfo))
			cmd.SetContext(cli.WithOutput(ctx, console.NewStreamOutput(cmd.OutOrStdout(), v)))
		},
	}
	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (-v, -vv, -vvv)")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print errors only")

	root.AddCommand(
		a.daemonCommand(),
		a.validateCommand(),
		a.listCommand(),
		a.runCommand(),
		a.migrateCommand(),
		a.commandsCommand(),
	)
	cli.AddBuiltins(root, cli.Deps{
		Logger:   a.log,
		Telegram: a.sender,
		ChatID:   a.cfg.Telegram.AlertChatID,
	})
	return root
}

func (a *App) source() (source.Source, error) {
	switch a.cfg.Cron.Source {
	case config.SourceFile:
		return source.NewFile(a.cfg.Cron.File, a.log), nil
	case config.SourceSQLite:
		return source.NewSQLite(a.cfg.Cron.SQLitePath, a.cfg.Cron.AutoMigrate, a.log), nil
	case config.SourcePostgres:
		return source.NewPostgres(a.cfg.Cron.PostgresDSN, a.cfg.Cron.AutoMigrate, a.log), nil
	default:
		return nil, fmt.Errorf("unknown job source %q", a.cfg.Cron.Source)
	}
}

func (a *App) registry(ctx context.Context) (*crontab.Registry, error) {
	src, err := a.source()
	if err != nil {
		return nil, err
	}
	reg, err := source.Registry(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load jobs from %s: %w", a.cfg.Cron.Source, err)
	}
	return reg, nil
}

func (a *App) executors(v console.Verbosity) executor.Set {
	return executor.Set{
		External: executor.NewExternal(
			executor.WithShell(a.cfg.Cron.Shell),
			executor.WithExternalLogger(a.log),
		),
		Internal: executor.NewInternal(cli.NewTree(a.Root), v),
	}
}

// lazyBot creates the Telegram client on first send, since bot.New performs
// a getMe request.
type lazyBot struct {
	token string
	once  sync.Once
	bot   *bot.Bot
	err   error
}

func (l *lazyBot) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	l.once.Do(func() {
		l.bot, l.err = bot.New(l.token)
	})
	if l.err != nil {
		return nil, fmt.Errorf("telegram bot: %w", l.err)
	}
	if l.bot == nil {
		return nil, errors.New("telegram bot: not initialized")
	}
	return l.bot.SendMessage(ctx, params)
}

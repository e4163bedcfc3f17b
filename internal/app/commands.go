package app

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"crontab/internal/adapter/cli"
	"crontab/internal/adapter/httpapi"
	"crontab/internal/adapter/scheduler"
	"crontab/internal/adapter/source"
	"crontab/internal/adapter/telegram"
	"crontab/internal/config"
	"crontab/internal/console"
	"crontab/internal/crontab"
)

func (a *App) daemonCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:         "daemon",
		Short:       "Run the scheduler loop until SIGINT or SIGTERM",
		Args:        cobra.NoArgs,
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			reg, err := a.registry(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Cron.TickInterval
			}
			if interval < time.Second {
				return fmt.Errorf("--interval must be at least 1s, got %s", interval)
			}

			reporters := scheduler.MultiReporter{scheduler.NewLogReporter(a.log)}
			var hooks scheduler.Hooks
			var status *httpapi.Status
			if a.cfg.HTTP.Addr != "" {
				status = httpapi.NewStatus(reg, interval)
				reporters = append(reporters, status)
				hooks.OnTickFinish = status.TickFinished
			}
			if a.cfg.AlertsEnabled() && a.sender != nil {
				reporters = append(reporters, telegram.NewAlerter(a.sender, a.cfg.Telegram.AlertChatID, telegram.WithLogger(a.log)))
			}

			s := scheduler.New(scheduler.Config{
				Registry:    reg,
				Executors:   a.executors(cli.OutputFrom(cmd).Verbosity()),
				Reporter:    reporters,
				Interval:    interval,
				Logger:      a.log,
				Hooks:       hooks,
				Concurrency: a.cfg.Cron.Concurrency,
			})

			a.log.Info("daemon starting",
				slog.String("source", a.cfg.Cron.Source),
				slog.Int("jobs", reg.Len()),
				slog.Duration("interval", interval),
				slog.Bool("alerts", a.cfg.AlertsEnabled()),
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return s.Run(gctx) })
			if status != nil {
				g.Go(func() error { return httpapi.Serve(gctx, a.cfg.HTTP.Addr, status, a.log) })
			}
			err = g.Wait()
			a.log.Info("daemon stopped")
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", scheduler.DefaultInterval, "tick interval (default CRON_TICK_INTERVAL)")
	return cmd
}

func (a *App) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the job definitions and report every error",
		Args:        cobra.NoArgs,
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			cli.OutputFrom(cmd).Printf(console.VerbosityNormal, "%d jobs OK", reg.Len())
			return nil
		},
	}
}

func (a *App) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "Print the jobs in order with their next run time",
		Args:        cobra.NoArgs,
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			w := tabwriter.NewWriter(cli.OutputFrom(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tSCHEDULE\tNEXT RUN\tCOMMAND")
			for _, j := range reg.Jobs() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					j.Name(), j.Kind(), j.Schedule(), j.Schedule().Next(now).Format(time.DateTime), j.Command())
			}
			return w.Flush()
		},
	}
}

func (a *App) commandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "commands",
		Short:       "Print the command names internal jobs can call",
		Args:        cobra.NoArgs,
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cli.OutputFrom(cmd)
			for _, name := range cli.NewTree(a.Root).Names() {
				out.Println(console.VerbosityNormal, name)
			}
			return nil
		},
	}
}

func (a *App) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "run <job>",
		Short:       "Execute one job now, ignoring its schedule",
		Args:        cobra.ExactArgs(1),
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := a.registry(ctx)
			if err != nil {
				return err
			}
			out := cli.OutputFrom(cmd)
			s := scheduler.New(scheduler.Config{
				Registry:  reg,
				Executors: a.executors(out.Verbosity()),
				Reporter:  scheduler.NewLogReporter(a.log),
				Logger:    a.log,
			})

			o, err := s.RunJob(ctx, args[0])
			if err != nil {
				return err
			}
			for _, line := range o.Output {
				out.Println(console.VerbosityNormal, line)
			}
			out.Printf(console.VerbosityVerbose, "%s: %s in %s", o.Job.Name(), o.Status, o.Duration.Round(time.Millisecond))

			switch {
			case o.Status == crontab.StatusFailed:
				return o.Err
			case o.ExitStatus != 0:
				return console.Exit(o.ExitStatus)
			}
			return nil
		},
	}
}

func (a *App) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Create or upgrade the cron_jobs schema of the database source",
		Args:        cobra.NoArgs,
		Annotations: cli.NoJob(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			switch a.cfg.Cron.Source {
			case config.SourceSQLite:
				err := source.NewSQLite(a.cfg.Cron.SQLitePath, true, a.log).Migrate(ctx)
				if err != nil {
					return err
				}
			case config.SourcePostgres:
				err := source.NewPostgres(a.cfg.Cron.PostgresDSN, true, a.log).Migrate(ctx)
				if err != nil {
					return err
				}
			default:
				return errors.New("migrate needs CRON_SOURCE=sqlite or postgres")
			}
			cli.OutputFrom(cmd).Printf(console.VerbosityNormal, "%s schema is up to date", a.cfg.Cron.Source)
			return nil
		},
	}
}

package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	dashboard "github.com/Chiquitos-JP/trading-dashboard"
)

// scheduleCmd holds the flags for the 'schedule' subcommand.
type scheduleCmd struct {
	spec  string
	force bool
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "run the pipeline on a cron schedule" }
func (*scheduleCmd) Usage() string {
	return `tdash schedule [-cron <spec>] [-force]

  Keeps the process alive and runs the full pipeline on a cron schedule,
  daily at 07:00 by default. Runs never overlap: the scheduler waits for the
  previous run to finish before starting the next one.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.spec, "cron", "0 7 * * *", "Cron expression for pipeline runs")
	f.BoolVar(&c.force, "force", false, "Recompute every stage on each scheduled run")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	log := newLogger()
	defer log.Sync()

	p, err := openPipeline(cfg, log)
	if err != nil {
		return fail(err)
	}

	sched := cron.New(cron.WithChain(cron.DelayIfStillRunning(cron.DiscardLogger)))
	_, err = sched.AddFunc(c.spec, func() {
		sum, err := p.Run(ctx, dashboard.RunOptions{Force: c.force})
		if err != nil {
			log.Error("scheduled run failed", zap.Error(err))
			return
		}
		log.Info("scheduled run done",
			zap.String("run", sum.RunID),
			zap.Int("inserted", sum.Inserted),
			zap.Int("duplicates", sum.Duplicates))
	})
	if err != nil {
		return fail(err)
	}

	log.Info("scheduler started", zap.String("cron", c.spec))
	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
	return subcommands.ExitSuccess
}

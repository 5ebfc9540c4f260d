package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/google/subcommands"

	dashboard "github.com/Chiquitos-JP/trading-dashboard"
)

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	force          bool
	skipCheckpoint bool
	steps          string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the ingestion and KPI pipeline" }
func (*runCmd) Usage() string {
	return `tdash run [-force] [-skip-checkpoint] [-steps <names>]

  Ingests the raw broker extracts, merges them into the master record set,
  recomputes the monthly KPI table and assembles the plot artifact. Stages
  with a checkpoint stamped today are reused unless -force is given.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Recompute every stage, ignoring checkpoint freshness")
	f.BoolVar(&c.skipCheckpoint, "skip-checkpoint", false, "Bypass the checkpoint store entirely")
	f.StringVar(&c.steps, "steps", "", "Comma-separated stage names to run (e.g. ts_monthly,plot_df)")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	opts := dashboard.RunOptions{
		Force:          c.force,
		SkipCheckpoint: c.skipCheckpoint,
	}
	if c.steps != "" {
		opts.Steps = strings.Split(c.steps, ",")
	}

	sum, err := p.Run(ctx, opts)
	if sum != nil {
		printMarkdown(sum.Markdown())
	}
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/Chiquitos-JP/trading-dashboard/cmd"
)

// completion describes the CLI surface for shell completion. Complete returns
// immediately when not invoked by a shell completion hook.
func completion() {
	stages := predict.Set{"raw_import", "merged_with_mdays", "ts_monthly", "plot_base", "plot_df"}
	c := &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"v":      predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"run": {Flags: map[string]complete.Predictor{
				"force":           predict.Nothing,
				"skip-checkpoint": predict.Nothing,
				"steps":           stages,
			}},
			"summary": {Flags: map[string]complete.Predictor{
				"from": predict.Nothing,
				"to":   predict.Nothing,
			}},
			"calendar": {Flags: map[string]complete.Predictor{
				"m": predict.Nothing,
			}},
			"schedule": {Flags: map[string]complete.Predictor{
				"cron":  predict.Nothing,
				"force": predict.Nothing,
			}},
		},
	}
	c.Complete("tdash")
}

func main() {
	// an optional .env next to the binary may carry TDASH_CONFIG; absence is
	// fine. An explicit -config flag still wins.
	godotenv.Load()
	if p := os.Getenv("TDASH_CONFIG"); p != "" {
		flag.Set("config", p)
	}
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()

	// cancel on SIGINT/SIGTERM so long-lived commands (schedule) drain
	// cleanly instead of dying mid-run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := int(commander.Execute(ctx))
	stop()
	os.Exit(status)
}

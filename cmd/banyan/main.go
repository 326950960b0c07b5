package main

import (
	"errors"
	"fmt"
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	cli2 "github.com/banyancomputer/banyan-client/cli"
	"github.com/banyancomputer/banyan-client/constants"
	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/utils"
)

var mainLog = logging.Logger("main")

func main() {
	app := &cli.App{
		Name:                 "banyan",
		Usage:                "propose files as storage deals on the Banyan network",
		Version:              constants.UserVersion(),
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			cli2.RepoFlag,
			cli2.CidBaseFlag,
		},
		Before: func(cctx *cli.Context) error {
			utils.SetupLogLevels()
			_, cfg, err := cli2.LoadConfig(cctx)
			if err != nil {
				// no usable config yet, e.g. before init
				mainLog.Debugw("metrics disabled", "err", err)
				return nil
			}
			return metrics.SetupMetrics(cctx.Context, cfg.Metrics)
		},
		Commands: []*cli.Command{
			cli2.WithCategory("repo", cli2.InitCmd),
			cli2.WithCategory("auth", cli2.LoginCmd),
			cli2.WithCategory("auth", cli2.LogoutCmd),
			cli2.WithCategory("auth", cli2.WalletCmd),
			cli2.WithCategory("deals", cli2.DealCmds),
			cli2.WithCategory("deals", cli2.ContentCmds),
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		var phe *cli2.PrintHelpErr
		if errors.As(err, &phe) {
			_ = cli.ShowCommandHelp(phe.Ctx, phe.Ctx.Command.Name)
		}
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		mainLog.Debugw("command failed", "err", err)
		os.Exit(1)
	}
}

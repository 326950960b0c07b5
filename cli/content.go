package cli

import (
	"errors"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/backend"
	"github.com/banyancomputer/banyan-client/lifecycle"
	"github.com/banyancomputer/banyan-client/types"
)

var ContentCmds = &cli.Command{
	Name:  "content",
	Usage: "Inspect content known to the backend and the staging service",
	Subcommands: []*cli.Command{
		contentListCmd,
		pinStatusCmd,
	},
}

var contentListCmd = &cli.Command{
	Name:  "list",
	Usage: "List staged content and the deals recorded for it",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "offset", Value: 0},
		&cli.IntFlag{Name: "limit", Value: 100},
		verboseFlag,
		jsonFlag,
	},
	Action: func(cctx *cli.Context) error {
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		stats, err := node.Backend.ContentStats(ReqContext(cctx), cctx.Int("offset"), cctx.Int("limit"))
		if err != nil {
			return err
		}
		if cctx.Bool(jsonFlag.Name) {
			return printJSON(cctx.App.Writer, stats)
		}
		return node.printer(cctx.Bool(verboseFlag.Name)).content(cctx.App.Writer, stats)
	},
}

var pinStatusCmd = &cli.Command{
	Name:      "pin-status",
	Usage:     "Print the pin status of a staged upload",
	ArgsUsage: "<entry id | staging id>",
	Flags:     []cli.Flag{&cli.BoolFlag{Name: "watch", Usage: "poll until the content is pinned"}},
	Action: func(cctx *cli.Context) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := ReqContext(cctx)
		stagingID := cctx.Args().First()
		e, err := node.Lifecycle.Get(ctx, stagingID)
		switch {
		case err == nil:
			if e.Staging == nil || e.Staging.StagingID == "" {
				return xerrors.Errorf("%w: entry %s has not been staged", types.ErrInvalidInput, e.ID)
			}
			stagingID = e.Staging.StagingID
		case !errors.Is(err, types.ErrEntryNotFound):
			return err
		}

		if !cctx.Bool("watch") {
			st, err := node.Backend.PinStatus(ctx, stagingID)
			if err != nil {
				return err
			}
			node.printer(false).pinStatus(cctx.App.Writer, st)
			return nil
		}

		poller := lifecycle.NewPinPoller(node.Backend, node.Config.PollInterval(), nil)
		_, err = poller.Watch(ctx, stagingID, func(st *backend.PinStatus) {
			node.printer(false).pinStatus(cctx.App.Writer, st)
		})
		return err
	},
}

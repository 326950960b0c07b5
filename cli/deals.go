package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/lifecycle"
	"github.com/banyancomputer/banyan-client/types"
)

var DealCmds = &cli.Command{
	Name:  "deal",
	Usage: "Propose files as storage deals and follow them",
	Subcommands: []*cli.Command{
		dealProposeCmd,
		dealSelectCmd,
		dealStageCmd,
		dealSubmitCmd,
		dealRecordCmd,
		dealResolveCmd,
		dealRecoverCmd,
		dealListCmd,
		dealShowCmd,
		dealRemoveCmd,
		dealStatusCmd,
		dealGetCmd,
		dealWatchCmd,
	},
}

var dealTermFlags = []cli.Flag{
	&cli.StringFlag{Name: "executor", Usage: "executor address, overrides the config"},
	&cli.Uint64Flag{Name: "length", Usage: "deal length in blocks"},
	&cli.Uint64Flag{Name: "proof-frequency", Usage: "proof frequency in blocks"},
	&cli.StringFlag{Name: "bounty", Usage: "bounty per size unit, in whole tokens"},
	&cli.StringFlag{Name: "collateral", Usage: "collateral per size unit, in whole tokens"},
	&cli.StringFlag{Name: "token", Usage: "token symbol or address"},
}

var watchFlag = &cli.BoolFlag{
	Name:  "watch",
	Usage: "follow the deal status until it is terminal",
}

var verboseFlag = &cli.BoolFlag{
	Name:    "verbose",
	Aliases: []string{"v"},
}

// dealConfiguration applies the deal term flags on top of the configured
// terms.
func dealConfiguration(cctx *cli.Context, node *ClientNode) (types.DealConfiguration, error) {
	d := &node.Config.Deal
	if cctx.IsSet("executor") {
		d.ExecutorAddress = cctx.String("executor")
	}
	if cctx.IsSet("length") {
		d.DealLengthInBlocks = cctx.Uint64("length")
	}
	if cctx.IsSet("proof-frequency") {
		d.ProofFrequencyInBlocks = cctx.Uint64("proof-frequency")
	}
	if cctx.IsSet("bounty") {
		d.BountyPerUnit = cctx.String("bounty")
	}
	if cctx.IsSet("collateral") {
		d.CollateralPerUnit = cctx.String("collateral")
	}
	if cctx.IsSet("token") {
		d.TokenDenomination = cctx.String("token")
	}
	return node.DealConfiguration()
}

// findEntry resolves a full entry id or a unique id prefix.
func findEntry(ctx context.Context, node *ClientNode, arg string) (*types.Entry, error) {
	e, err := node.Lifecycle.Get(ctx, arg)
	if err == nil || !errors.Is(err, types.ErrEntryNotFound) {
		return e, err
	}
	entries, lerr := node.Lifecycle.List(ctx)
	if lerr != nil {
		return nil, lerr
	}
	var found *types.Entry
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, arg) {
			continue
		}
		if found != nil {
			return nil, xerrors.Errorf("%w: id prefix %s is ambiguous", types.ErrInvalidInput, arg)
		}
		found = e
	}
	if found == nil {
		return nil, err
	}
	return found, nil
}

type nodeOpener func(cctx *cli.Context) (*ClientNode, Closer, error)

// entryAction wraps a single entry operation taking <entry id>.
func entryAction(open nodeOpener, op func(ctx context.Context, cctx *cli.Context, node *ClientNode, e *types.Entry) (*types.Entry, error)) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		node, closer, err := open(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := ReqContext(cctx)
		e, err := findEntry(ctx, node, cctx.Args().First())
		if err != nil {
			return err
		}
		out, opErr := op(ctx, cctx, node, e)
		if out != nil {
			if err := node.printer(false).entry(cctx.App.Writer, out); err != nil {
				return err
			}
		}
		return opErr
	}
}

func stageWithBar(ctx context.Context, cctx *cli.Context, node *ClientNode, e *types.Entry, run bool) (*types.Entry, error) {
	bar := newUploadBar(cctx.App.ErrWriter, e.FileName)
	defer bar.Finish()
	if run {
		return node.Lifecycle.Run(ctx, e.ID, bar.Progress())
	}
	return node.Lifecycle.Stage(ctx, e.ID, bar.Progress())
}

var dealProposeCmd = &cli.Command{
	Name:      "propose",
	Usage:     "Select files, stage them, submit the deals and record them with the backend",
	ArgsUsage: "<file> [<file>...]",
	Flags: append([]cli.Flag{
		watchFlag,
		&cli.IntFlag{Name: "parallel", Value: 2, Usage: "files proposed at once when several are given"},
	}, dealTermFlags...),
	Action: func(cctx *cli.Context) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		files := cctx.Args().Slice()
		if len(files) > 1 && cctx.Bool(watchFlag.Name) {
			return ShowHelp(cctx, xerrors.Errorf("--%s takes a single file", watchFlag.Name))
		}
		if cctx.Int("parallel") < 1 {
			return ShowHelp(cctx, xerrors.New("--parallel must be at least 1"))
		}
		node, closer, err := NewSigningNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := ReqContext(cctx)
		dealCfg, err := dealConfiguration(cctx, node)
		if err != nil {
			return err
		}
		if len(files) > 1 {
			return proposeAll(ctx, cctx, node, dealCfg, files)
		}

		e, err := node.Lifecycle.Select(ctx, dealCfg, files[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "selected %s as %s\n", e.FileName, e.ID)

		e, runErr := stageWithBar(ctx, cctx, node, e, true)
		if e != nil {
			if err := node.printer(false).entry(cctx.App.Writer, e); err != nil {
				return err
			}
		}
		if runErr != nil {
			return runErr
		}
		if cctx.Bool(watchFlag.Name) && e.DealID != 0 {
			return watchDeal(ctx, cctx, node, e.DealID)
		}
		return nil
	},
}

// proposeAll runs every file through the lifecycle, at most --parallel at a
// time. A failed file does not stop the others.
func proposeAll(ctx context.Context, cctx *cli.Context, node *ClientNode, dealCfg types.DealConfiguration, files []string) error {
	var (
		lk      sync.Mutex
		merr    *multierror.Error
		entries = make([]*types.Entry, len(files))
	)
	var g errgroup.Group
	g.SetLimit(cctx.Int("parallel"))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			e, err := node.Lifecycle.Select(ctx, dealCfg, file)
			if err == nil {
				var out *types.Entry
				out, err = node.Lifecycle.Run(ctx, e.ID, nil)
				if out != nil {
					e = out
				}
			}
			entries[i] = e
			if err != nil {
				lk.Lock()
				merr = multierror.Append(merr, xerrors.Errorf("%s: %w", file, err))
				lk.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	done := make([]*types.Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			done = append(done, e)
		}
	}
	if err := node.printer(false).entries(cctx.App.Writer, done); err != nil {
		return err
	}
	return merr.ErrorOrNil()
}

var dealSelectCmd = &cli.Command{
	Name:      "select",
	Usage:     "Create an upload entry for a file without staging it",
	ArgsUsage: "<file>",
	Flags:     dealTermFlags,
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
		dealCfg, err := dealConfiguration(cctx, node)
		if err != nil {
			return err
		}
		e, err := node.Lifecycle.Select(ctx, dealCfg, cctx.Args().First())
		if err != nil {
			return err
		}
		return node.printer(false).entry(cctx.App.Writer, e)
	},
}

var dealStageCmd = &cli.Command{
	Name:      "stage",
	Usage:     "Upload the file of an entry to the staging service",
	ArgsUsage: "<entry id>",
	Action: entryAction(NewClientNode, func(ctx context.Context, cctx *cli.Context, node *ClientNode, e *types.Entry) (*types.Entry, error) {
		return stageWithBar(ctx, cctx, node, e, false)
	}),
}

var dealSubmitCmd = &cli.Command{
	Name:      "submit",
	Usage:     "Submit the deal proposal of a staged entry to the contract",
	ArgsUsage: "<entry id>",
	Action: entryAction(NewSigningNode, func(ctx context.Context, _ *cli.Context, node *ClientNode, e *types.Entry) (*types.Entry, error) {
		return node.Lifecycle.Submit(ctx, e.ID)
	}),
}

var dealRecordCmd = &cli.Command{
	Name:      "record",
	Usage:     "Report the deal id of a submitted entry to the backend",
	ArgsUsage: "<entry id>",
	Action: entryAction(NewClientNode, func(ctx context.Context, _ *cli.Context, node *ClientNode, e *types.Entry) (*types.Entry, error) {
		return node.Lifecycle.Record(ctx, e.ID)
	}),
}

var dealResolveCmd = &cli.Command{
	Name:      "resolve",
	Usage:     "Attach the deal id found on chain to an entry whose submission was ambiguous",
	ArgsUsage: "<entry id> <deal id>",
	Action: func(cctx *cli.Context) error {
		if err := requireArgs(cctx, 2); err != nil {
			return err
		}
		dealID, err := types.ParseDealID(cctx.Args().Get(1))
		if err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := ReqContext(cctx)
		e, err := findEntry(ctx, node, cctx.Args().First())
		if err != nil {
			return err
		}
		e, err = node.Lifecycle.Resolve(ctx, e.ID, dealID)
		if err != nil {
			return err
		}
		return node.printer(false).entry(cctx.App.Writer, e)
	},
}

var dealRecoverCmd = &cli.Command{
	Name:  "recover",
	Usage: "Mark entries left staging or submitting by a crashed process as failed or ambiguous",
	Action: func(cctx *cli.Context) error {
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		n, err := node.Lifecycle.Recover(ReqContext(cctx))
		fmt.Fprintf(cctx.App.Writer, "recovered %d entries\n", n)
		return err
	},
}

var dealListCmd = &cli.Command{
	Name:  "list",
	Usage: "List upload entries",
	Flags: []cli.Flag{
		verboseFlag,
		jsonFlag,
		&cli.StringFlag{Name: "state", Usage: "only show entries in this state, e.g. SubmitFailed"},
	},
	Action: func(cctx *cli.Context) error {
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		entries, err := node.Lifecycle.List(ReqContext(cctx))
		if err != nil {
			return err
		}
		if cctx.IsSet("state") {
			want := cctx.String("state")
			filtered := entries[:0]
			for _, e := range entries {
				if strings.EqualFold(e.State.String(), want) {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		if cctx.Bool(jsonFlag.Name) {
			return printJSON(cctx.App.Writer, entries)
		}
		return node.printer(cctx.Bool(verboseFlag.Name)).entries(cctx.App.Writer, entries)
	},
}

var dealShowCmd = &cli.Command{
	Name:      "show",
	Usage:     "Print an upload entry",
	ArgsUsage: "<entry id>",
	Flags:     []cli.Flag{jsonFlag},
	Action: func(cctx *cli.Context) error {
		if err := requireArgs(cctx, 1); err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		e, err := findEntry(ReqContext(cctx), node, cctx.Args().First())
		if err != nil {
			return err
		}
		if cctx.Bool(jsonFlag.Name) {
			return printJSON(cctx.App.Writer, e)
		}
		return node.printer(false).entry(cctx.App.Writer, e)
	},
}

var dealRemoveCmd = &cli.Command{
	Name:      "remove",
	Usage:     "Forget an upload entry. The deal on chain is not affected",
	ArgsUsage: "<entry id>",
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
		e, err := findEntry(ctx, node, cctx.Args().First())
		if err != nil {
			return err
		}
		if err := node.Lifecycle.Remove(ctx, e.ID); err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "removed %s\n", e.ID)
		return nil
	},
}

func dealIDArg(cctx *cli.Context) (types.DealID, error) {
	if err := requireArgs(cctx, 1); err != nil {
		return 0, err
	}
	return types.ParseDealID(cctx.Args().First())
}

var dealStatusCmd = &cli.Command{
	Name:      "status",
	Usage:     "Print the status of an on-chain deal",
	ArgsUsage: "<deal id>",
	Action: func(cctx *cli.Context) error {
		id, err := dealIDArg(cctx)
		if err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		status, err := node.Gateway.GetStatus(ReqContext(cctx), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "%s  %s\n", id, dealStatusString(status))
		return nil
	},
}

var dealGetCmd = &cli.Command{
	Name:      "get",
	Usage:     "Print an on-chain deal",
	ArgsUsage: "<deal id>",
	Flags:     []cli.Flag{jsonFlag},
	Action: func(cctx *cli.Context) error {
		id, err := dealIDArg(cctx)
		if err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		deal, err := node.Gateway.GetDeal(ReqContext(cctx), id)
		if err != nil {
			return err
		}
		if cctx.Bool(jsonFlag.Name) {
			return printJSON(cctx.App.Writer, deal)
		}
		return node.printer(false).deal(cctx.App.Writer, deal)
	},
}

var dealWatchCmd = &cli.Command{
	Name:      "watch",
	Usage:     "Follow the status of an on-chain deal until it is terminal",
	ArgsUsage: "<deal id>",
	Action: func(cctx *cli.Context) error {
		id, err := dealIDArg(cctx)
		if err != nil {
			return err
		}
		node, closer, err := NewClientNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		return watchDeal(ReqContext(cctx), cctx, node, id)
	},
}

func watchDeal(ctx context.Context, cctx *cli.Context, node *ClientNode, id types.DealID) error {
	poller := lifecycle.NewStatusPoller(node.Gateway, node.Config.PollInterval(), nil)
	last := types.DealStatusNone
	status, err := poller.Watch(ctx, id, func(s types.DealStatus) {
		if s != last {
			fmt.Fprintf(cctx.App.Writer, "%s  %s\n", id, dealStatusString(s))
			last = s
		}
	})
	if err != nil {
		return xerrors.Errorf("watch deal %s (last status %s): %w", id, status, err)
	}
	return nil
}

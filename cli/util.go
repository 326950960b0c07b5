package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-cidutil/cidenc"
	"github.com/mitchellh/go-homedir"
	"github.com/multiformats/go-multibase"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/config"
	"github.com/banyancomputer/banyan-client/types"
	"github.com/banyancomputer/banyan-client/utils"
)

var RepoFlag = &cli.StringFlag{
	Name:    "repo",
	EnvVars: []string{config.RepoEnv},
	Value:   config.DefaultRepo,
	Usage:   "directory holding config, wallet, session token and upload entries",
}

var CidBaseFlag = &cli.StringFlag{
	Name:        "cid-base",
	Hidden:      true,
	Value:       "base32",
	Usage:       "multibase encoding used for version 1 CIDs in output",
	DefaultText: "base32",
}

// GetCidEncoder returns an encoder using the cid-base flag if provided, or
// the base32 encoder if not.
func GetCidEncoder(cctx *cli.Context) (cidenc.Encoder, error) {
	e := cidenc.Encoder{Base: multibase.MustNewEncoder(multibase.Base32)}
	if val := cctx.String(CidBaseFlag.Name); val != "" {
		var err error
		e.Base, err = multibase.EncoderByName(val)
		if err != nil {
			return e, xerrors.Errorf("%w: cid-base: %v", types.ErrInvalidInput, err)
		}
	}
	return e, nil
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "print json instead of a table",
}

// GetRepoPath returns the expanded repo directory selected by the repo flag.
func GetRepoPath(cctx *cli.Context) (string, error) {
	return homedir.Expand(config.RepoPath(cctx.String(RepoFlag.Name)))
}

func exist(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func WithCategory(cat string, cmd *cli.Command) *cli.Command {
	cmd.Category = strings.ToUpper(cat)
	return cmd
}

// ReqContext returns context for cli execution. The context is cancelled on
// SIGTERM or SIGINT.
func ReqContext(cctx *cli.Context) context.Context {
	parent := cctx.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, _ := utils.MonitorShutdown(parent, nil)
	return ctx
}

type PrintHelpErr struct {
	Err error
	Ctx *cli.Context
}

func (e *PrintHelpErr) Error() string {
	return e.Err.Error()
}

func (e *PrintHelpErr) Unwrap() error {
	return e.Err
}

func (e *PrintHelpErr) Is(o error) bool {
	_, ok := o.(*PrintHelpErr)
	return ok
}

func ShowHelp(cctx *cli.Context, err error) error {
	return &PrintHelpErr{Err: err, Ctx: cctx}
}

// requireArgs returns a help error unless exactly n arguments were given.
func requireArgs(cctx *cli.Context, n int) error {
	if cctx.NArg() != n {
		return ShowHelp(cctx, fmt.Errorf("expected %d arguments, got %d", n, cctx.NArg()))
	}
	return nil
}

func ellipsis(s string, length int) string {
	if length > 0 && len(s) > length {
		return "..." + s[len(s)-length:]
	}
	return s
}

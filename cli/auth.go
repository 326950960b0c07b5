package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var LoginCmd = &cli.Command{
	Name:  "login",
	Usage: "Sign in to the backend with the configured wallet",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "ens", Usage: "ens name to send along with the signature"},
	},
	Action: func(cctx *cli.Context) error {
		node, closer, err := NewSigningNode(cctx)
		if err != nil {
			return err
		}
		defer closer()

		ctx := ReqContext(cctx)
		w, err := node.Wallet()
		if err != nil {
			return err
		}
		chainID, err := node.ChainID(ctx)
		if err != nil {
			return xerrors.Errorf("get chain id: %w", err)
		}
		token, expires, err := node.Backend.SignIn(ctx, w, chainID, cctx.String("ens"))
		if err != nil {
			return xerrors.Errorf("sign in: %w", err)
		}
		node.Session.SetToken(token, expires)
		if err := node.Session.Save(node.Home); err != nil {
			return xerrors.Errorf("save session: %w", err)
		}
		fmt.Fprintf(cctx.App.Writer, "logged in as %s\n", w.Address().Hex())
		return nil
	},
}

var LogoutCmd = &cli.Command{
	Name:  "logout",
	Usage: "Drop the saved session token",
	Action: func(cctx *cli.Context) error {
		home, cfg, err := LoadConfig(cctx)
		if err != nil {
			return err
		}
		sess := newSession(cfg)
		sess.Logout()
		return sess.Save(home)
	},
}

var WalletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "Print the address of the configured wallet",
	Action: func(cctx *cli.Context) error {
		_, cfg, err := LoadConfig(cctx)
		if err != nil {
			return err
		}
		w, err := unlockWallet(cctx, &cfg.Wallet)
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, w.Address().Hex())
		return nil
	},
}

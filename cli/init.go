package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/chain"
	"github.com/banyancomputer/banyan-client/config"
)

var InitCmd = &cli.Command{
	Name:  "init",
	Usage: "Create the repo with a default config",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "api-host", Usage: "banyan backend url"},
		&cli.StringFlag{Name: "staging-host", Usage: "staging service url"},
		&cli.StringFlag{Name: "rpc-url", Usage: "ethereum json-rpc endpoint"},
		&cli.StringFlag{Name: "contract", Usage: "deal contract address"},
		&cli.StringFlag{Name: "profile", Usage: fmt.Sprintf("contract profile, one of %v", chain.ProfileNames())},
		&cli.StringFlag{Name: "executor", Usage: "default executor address"},
		&cli.BoolFlag{Name: "new-key", Usage: "generate a wallet key when the key file does not exist"},
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing config"},
	},
	Action: func(cctx *cli.Context) error {
		home, err := GetRepoPath(cctx)
		if err != nil {
			return err
		}
		cfg := config.DefaultClientConfig()
		cfg.HomeDir = home
		cfgPath, err := cfg.ConfigPath()
		if err != nil {
			return err
		}
		has, err := exist(cfgPath)
		if err != nil {
			return err
		}
		if has && !cctx.Bool("force") {
			return xerrors.Errorf("config %s already exists, use --force to overwrite", cfgPath)
		}

		if cctx.IsSet("api-host") {
			cfg.API.Host = cctx.String("api-host")
		}
		if cctx.IsSet("staging-host") {
			cfg.Staging.Host = cctx.String("staging-host")
		}
		if cctx.IsSet("rpc-url") {
			cfg.Chain.RPCURL = cctx.String("rpc-url")
		}
		if cctx.IsSet("contract") {
			cfg.Chain.ContractAddress = cctx.String("contract")
		}
		if cctx.IsSet("profile") {
			if _, err := chain.LookupProfile(cctx.String("profile")); err != nil {
				return err
			}
			cfg.Chain.Profile = cctx.String("profile")
		}
		if cctx.IsSet("executor") {
			cfg.Deal.ExecutorAddress = cctx.String("executor")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.SaveConfig(cfg); err != nil {
			return xerrors.Errorf("save config to %s: %w", cfgPath, err)
		}
		fmt.Fprintf(cctx.App.Writer, "wrote %s\n", cfgPath)

		if cctx.Bool("new-key") && cfg.Wallet.Type != config.WalletKeystore {
			addr, created, err := generateKey(cfg.Wallet.KeyFile)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cctx.App.Writer, "generated wallet %s\n", addr)
			}
		}
		return nil
	},
}

// generateKey writes a fresh hex private key to path unless a file is already
// there.
func generateKey(path string) (string, bool, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return "", false, err
	}
	has, err := exist(path)
	if err != nil {
		return "", false, err
	}
	if has {
		return "", false, nil
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(crypto.FromECDSA(key))), 0600); err != nil {
		return "", false, xerrors.Errorf("write wallet key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), true, nil
}

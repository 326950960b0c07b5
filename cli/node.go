package cli

import (
	"context"
	"errors"
	mbig "math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/howeyc/gopass"
	"github.com/ipfs/go-cidutil/cidenc"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/backend"
	"github.com/banyancomputer/banyan-client/chain"
	"github.com/banyancomputer/banyan-client/config"
	"github.com/banyancomputer/banyan-client/lifecycle"
	"github.com/banyancomputer/banyan-client/models"
	"github.com/banyancomputer/banyan-client/models/repo"
	"github.com/banyancomputer/banyan-client/session"
	"github.com/banyancomputer/banyan-client/staging"
	"github.com/banyancomputer/banyan-client/types"
)

var log = logging.Logger("cli")

type Closer func()

// ClientNode bundles everything a command needs to act on uploads and deals.
type ClientNode struct {
	Home      string
	Config    *config.ClientConfig
	Session   *session.Session
	Backend   *backend.Client
	Staging   *staging.Client
	Gateway   *chain.Gateway
	Lifecycle *lifecycle.Lifecycle

	wallet chain.Wallet
	repo   repo.EntryRepo
	eth    *ethclient.Client
	cids   cidenc.Encoder
}

func (n *ClientNode) printer(verbose bool) *printer {
	return &printer{tokens: n.Gateway.Tokens(), cids: n.cids, verbose: verbose}
}

// Wallet returns ErrAuthRequired when no wallet could be opened.
func (n *ClientNode) Wallet() (chain.Wallet, error) {
	return n.Session.Wallet()
}

// ChainID returns the configured chain id, asking the node when unset.
func (n *ClientNode) ChainID(ctx context.Context) (*mbig.Int, error) {
	if n.Config.Chain.ChainID > 0 {
		return new(mbig.Int).SetUint64(n.Config.Chain.ChainID), nil
	}
	return n.eth.ChainID(ctx)
}

// DealConfiguration returns the configured deal terms in token base units.
func (n *ClientNode) DealConfiguration() (types.DealConfiguration, error) {
	d := n.Config.Deal
	decimals := n.Gateway.Tokens().Decimals(d.TokenDenomination, n.Config.TokenDecimals(d.TokenDenomination, types.DefaultTokenDecimals))
	return d.Configuration(decimals)
}

// LoadConfig reads the client config of the selected repo.
func LoadConfig(cctx *cli.Context) (string, *config.ClientConfig, error) {
	home, err := GetRepoPath(cctx)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadClientConfig(home)
	if err != nil {
		return "", nil, xerrors.Errorf("load config: %w", err)
	}
	return home, cfg, nil
}

var errNoPassphrase = xerrors.New("keystore passphrase not set")

// OpenWallet opens the wallet described by cfg. A keystore wallet needs its
// passphrase in the configured environment variable.
func OpenWallet(cfg *config.Wallet) (chain.Wallet, error) {
	path, err := homedir.Expand(cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	var w *chain.KeyWallet
	switch cfg.Type {
	case config.WalletKeystore:
		passphrase := os.Getenv(cfg.PassphraseEnv)
		if passphrase == "" {
			return nil, xerrors.Errorf("%w: $%s is empty", errNoPassphrase, cfg.PassphraseEnv)
		}
		w, err = chain.NewKeystoreWallet(path, passphrase)
	case config.WalletKey, "":
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Errorf("read wallet key %s: %w", path, err)
		}
		w, err = chain.NewHexKeyWallet(string(data))
	default:
		return nil, xerrors.Errorf("%w: unknown wallet type %q", types.ErrInvalidInput, cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func appStdin(a *cli.App) gopass.FdReader {
	if istdin, ok := a.Metadata["stdin"]; ok {
		return istdin.(gopass.FdReader)
	}
	return os.Stdin
}

// unlockWallet is OpenWallet that asks for a missing keystore passphrase on
// the terminal.
func unlockWallet(cctx *cli.Context, cfg *config.Wallet) (chain.Wallet, error) {
	w, err := OpenWallet(cfg)
	if !errors.Is(err, errNoPassphrase) {
		return w, err
	}
	pw, err := gopass.GetPasswdPrompt("keystore passphrase: ", true, appStdin(cctx.App), cctx.App.ErrWriter)
	if err != nil {
		return nil, xerrors.Errorf("read passphrase: %w", err)
	}
	path, err := homedir.Expand(cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	kw, err := chain.NewKeystoreWallet(path, string(pw))
	if err != nil {
		return nil, err
	}
	return kw, nil
}

// TokenBook builds the token book from the configured tokens.
func TokenBook(tokens []config.Token) (chain.TokenBook, error) {
	out := make([]chain.Token, 0, len(tokens))
	for _, t := range tokens {
		if !common.IsHexAddress(t.Address) {
			return nil, xerrors.Errorf("%w: token %s address %q", types.ErrInvalidInput, t.Symbol, t.Address)
		}
		out = append(out, chain.Token{Symbol: strings.ToUpper(t.Symbol), Address: common.HexToAddress(t.Address), Decimals: t.Decimals})
	}
	return chain.NewTokenBook(out...), nil
}

func newSession(cfg *config.ClientConfig) *session.Session {
	return session.New(cfg.API.Host, cfg.Staging.Host)
}

// NewClientNode opens the repo and connects the clients. A wallet that cannot
// be opened only fails commands that sign.
func NewClientNode(cctx *cli.Context) (*ClientNode, Closer, error) {
	return newClientNode(cctx, false)
}

// NewSigningNode is NewClientNode for commands that sign. It fails without a
// wallet and prompts for a keystore passphrase when none is configured.
func NewSigningNode(cctx *cli.Context) (*ClientNode, Closer, error) {
	return newClientNode(cctx, true)
}

func newClientNode(cctx *cli.Context, signing bool) (*ClientNode, Closer, error) {
	ctx := cctx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	home, cfg, err := LoadConfig(cctx)
	if err != nil {
		return nil, nil, err
	}
	cids, err := GetCidEncoder(cctx)
	if err != nil {
		return nil, nil, err
	}
	n := &ClientNode{Home: home, Config: cfg, cids: cids}

	n.Session = newSession(cfg)
	if err := n.Session.Load(home); err != nil {
		return nil, nil, xerrors.Errorf("load session: %w", err)
	}
	open := OpenWallet
	if signing {
		open = func(cfg *config.Wallet) (chain.Wallet, error) { return unlockWallet(cctx, cfg) }
	}
	if w, err := open(&cfg.Wallet); err != nil {
		if signing {
			return nil, nil, xerrors.Errorf("open wallet: %w", err)
		}
		log.Debugw("wallet not available", "err", err)
	} else {
		n.wallet = w
		n.Session.SetWallet(w)
	}

	n.Backend = backend.NewClient(cfg.API.Host, cfg.Staging.Host, n.Session, cfg.API.Timeout.Std())
	endpoint := cfg.Staging.UploadEndpoint
	if endpoint == "" {
		endpoint = cfg.Staging.Host
	}
	n.Staging = staging.NewClient(endpoint, n.Session)

	profile, err := chain.LookupProfile(cfg.Chain.Profile)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := TokenBook(cfg.Chain.Tokens)
	if err != nil {
		return nil, nil, err
	}
	n.eth, err = ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return nil, nil, xerrors.Errorf("dial %s: %w", cfg.Chain.RPCURL, err)
	}
	opts := []chain.Option{
		chain.WithTokens(tokens),
		chain.WithConfirmationTimeout(cfg.Chain.ConfirmationTimeout.Std()),
	}
	if cfg.Chain.ChainID > 0 {
		opts = append(opts, chain.WithChainID(new(mbig.Int).SetUint64(cfg.Chain.ChainID)))
	}
	n.Gateway, err = chain.NewGateway(n.eth, cfg.Chain.ContractAddress, profile, n.wallet, opts...)
	if err != nil {
		n.eth.Close()
		return nil, nil, err
	}

	n.repo, err = models.OpenEntryRepo(&cfg.Repo, home)
	if err != nil {
		n.eth.Close()
		return nil, nil, xerrors.Errorf("open entry repo: %w", err)
	}
	n.Lifecycle = lifecycle.New(n.repo, n.Staging, n.Gateway, n.Backend, lifecycle.WithUnitSize(profile.UnitSize))
	// badger and leveldb lock their directory, so entries left in flight
	// there belong to a process that is gone
	switch cfg.Repo.Type {
	case config.RepoBadger, config.RepoLeveldb, "":
		if recovered, err := n.Lifecycle.Recover(ctx); err != nil {
			log.Warnw("recover interrupted entries", "err", err)
		} else if recovered > 0 {
			log.Infow("recovered interrupted entries", "count", recovered)
		}
	}

	return n, func() {
		if err := n.repo.Close(); err != nil {
			log.Warnw("close entry repo", "err", err)
		}
		n.eth.Close()
	}, nil
}

package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/hashicorp/go-multierror"
	"github.com/ipfs-force-community/metrics"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/types"
)

// API contains configs for the Banyan backend
type API struct {
	Host    string
	Timeout Duration
}

// Staging contains configs for the staging service
type Staging struct {
	Host string
	// UploadEndpoint overrides {Host}/content/add
	UploadEndpoint string
}

type Token struct {
	Symbol   string
	Address  string
	Decimals uint8
}

// Chain contains configs for the deal contract
type Chain struct {
	RPCURL              string
	ChainID             uint64
	ContractAddress     string
	Profile             string
	ConfirmationTimeout Duration
	Tokens              []Token
}

const (
	WalletKey      = "key"
	WalletKeystore = "keystore"
)

// Wallet selects the signer used for deal submission and login
type Wallet struct {
	// Type is either "key" (hex private key file) or "keystore" (geth json)
	Type    string
	KeyFile string
	// PassphraseEnv names the environment variable holding the keystore passphrase
	PassphraseEnv string
}

// Deal holds the default deal terms in human token units
type Deal struct {
	ExecutorAddress        string
	DealLengthInBlocks     uint64
	ProofFrequencyInBlocks uint64
	BountyPerUnit          string
	CollateralPerUnit      string
	TokenDenomination      string
}

// Configuration converts the human units to token base units.
func (d Deal) Configuration(decimals uint8) (types.DealConfiguration, error) {
	bounty, err := types.ParseTokenAmount(d.BountyPerUnit, decimals)
	if err != nil {
		return types.DealConfiguration{}, xerrors.Errorf("bounty per unit: %w", err)
	}
	collateral, err := types.ParseTokenAmount(d.CollateralPerUnit, decimals)
	if err != nil {
		return types.DealConfiguration{}, xerrors.Errorf("collateral per unit: %w", err)
	}
	return types.DealConfiguration{
		ExecutorAddress:        d.ExecutorAddress,
		DealLengthInBlocks:     d.DealLengthInBlocks,
		ProofFrequencyInBlocks: d.ProofFrequencyInBlocks,
		BountyPerUnit:          bounty,
		CollateralPerUnit:      collateral,
		TokenDenomination:      d.TokenDenomination,
	}, nil
}

type Poll struct {
	Interval Duration
}

const (
	RepoBadger  = "badger"
	RepoLeveldb = "leveldb"
	RepoSqlite  = "sqlite"
	RepoMysql   = "mysql"
)

type SqliteConfig struct {
	Path  string
	Debug bool
}

type MySqlConfig struct {
	ConnectionString string
	MaxOpenConn      int // 100
	MaxIdleConn      int // 100
	ConnMaxLifeTime  Duration
	Debug            bool
}

// Repo selects where upload entries are kept
type Repo struct {
	Type string
	// Path of the badger or leveldb datastore, relative to the repo dir when
	// not absolute
	Path   string
	Sqlite SqliteConfig
	Mysql  MySqlConfig
}

type ClientConfig struct {
	Home `toml:"-"`

	API     API
	Staging Staging
	Chain   Chain
	Wallet  Wallet
	Deal    Deal
	Poll    Poll
	Repo    Repo
	Metrics *metrics.MetricsConfig
}

// Validate reports settings no command could work with. Every problem found
// is returned, not just the first.
func (c *ClientConfig) Validate() error {
	var merr *multierror.Error
	invalid := func(format string, args ...interface{}) {
		merr = multierror.Append(merr, xerrors.Errorf("%w: "+format, append([]interface{}{types.ErrInvalidInput}, args...)...))
	}

	switch c.Repo.Type {
	case RepoBadger, RepoLeveldb, RepoSqlite:
	case RepoMysql:
		if c.Repo.Mysql.ConnectionString == "" {
			invalid("mysql repo needs a connection string")
		}
	default:
		invalid("unknown repo type %q", c.Repo.Type)
	}
	if !isHTTPURL(c.API.Host) {
		invalid("api host %q is not a url", c.API.Host)
	}
	if !isHTTPURL(c.Staging.Host) {
		invalid("staging host %q is not a url", c.Staging.Host)
	}
	if c.Staging.UploadEndpoint != "" && !isHTTPURL(c.Staging.UploadEndpoint) {
		invalid("upload endpoint %q is not a url", c.Staging.UploadEndpoint)
	}
	switch c.Wallet.Type {
	case "", WalletKey, WalletKeystore:
	default:
		invalid("unknown wallet type %q", c.Wallet.Type)
	}
	if c.Poll.Interval <= 0 {
		invalid("poll interval must be positive")
	}
	for _, t := range c.Chain.Tokens {
		if strings.TrimSpace(t.Symbol) == "" {
			invalid("token %s has no symbol", t.Address)
		}
	}
	return merr.ErrorOrNil()
}

// isHTTPURL accepts absolute http and https urls. govalidator alone also
// takes "localhost:3001", which parses as scheme localhost.
func isHTTPURL(s string) bool {
	if !govalidator.IsRequestURL(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *ClientConfig) PollInterval() time.Duration {
	return c.Poll.Interval.Std()
}

// TokenDecimals returns the decimals configured for the token, or def.
func (c *ClientConfig) TokenDecimals(symbol string, def uint8) uint8 {
	for _, t := range c.Chain.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t.Decimals
		}
	}
	return def
}

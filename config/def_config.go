package config

import (
	"time"

	"github.com/ipfs-force-community/metrics"
)

// DefaultClientConfig returns the config written by `banyan init`.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Home: Home{DefaultRepo},
		API: API{
			Host:    "http://localhost:3001",
			Timeout: Duration(30 * time.Second),
		},
		Staging: Staging{
			Host: "http://localhost:3004",
		},
		Chain: Chain{
			RPCURL:              "http://localhost:8545",
			ChainID:             5,
			Profile:             "banyan-v3",
			ConfirmationTimeout: Duration(5 * time.Minute),
			Tokens: []Token{
				{Symbol: "USDC", Address: "0x07865c6E87B9F70255377e024ace6630C1Eaa37F", Decimals: 6},
			},
		},
		Wallet: Wallet{
			Type:          WalletKey,
			KeyFile:       "~/.banyan/wallet.key",
			PassphraseEnv: "BANYAN_KEYSTORE_PASSPHRASE",
		},
		Deal: Deal{
			ExecutorAddress:        "0x0000000000000000000000000000000000000000",
			DealLengthInBlocks:     365 * 6344,
			ProofFrequencyInBlocks: 1,
			BountyPerUnit:          "10",
			CollateralPerUnit:      "0.01",
			TokenDenomination:      "USDC",
		},
		Poll: Poll{
			Interval: Duration(5 * time.Second),
		},
		Repo: Repo{
			Type: RepoBadger,
			Path: "entries",
			Sqlite: SqliteConfig{
				Path: "entries.db",
			},
			Mysql: MySqlConfig{
				MaxOpenConn:     100,
				MaxIdleConn:     100,
				ConnMaxLifeTime: Duration(time.Minute),
			},
		},
		Metrics: metrics.DefaultMetricsConfig(),
	}
}

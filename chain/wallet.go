package chain

import (
	"context"
	"crypto/ecdsa"
	mbig "math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
)

// Wallet is the signing capability the client needs from the user's wallet.
type Wallet interface {
	Address() common.Address
	// Transactor returns transaction options that sign for chainID.
	Transactor(ctx context.Context, chainID *mbig.Int) (*bind.TransactOpts, error)
	// SignText signs an EIP-191 personal message.
	SignText(text []byte) ([]byte, error)
}

// KeyWallet signs with an in-memory secp256k1 key.
type KeyWallet struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ Wallet = (*KeyWallet)(nil)

func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewHexKeyWallet parses a hex encoded private key, with or without 0x prefix.
func NewHexKeyWallet(hexKey string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, xerrors.Errorf("parse private key: %w", err)
	}
	return NewKeyWallet(key), nil
}

// NewKeystoreWallet decrypts a geth keystore JSON file.
func NewKeystoreWallet(path, passphrase string) (*KeyWallet, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read keystore %s: %w", path, err)
	}
	k, err := keystore.DecryptKey(data, passphrase)
	if err != nil {
		return nil, xerrors.Errorf("decrypt keystore %s: %w", path, err)
	}
	return NewKeyWallet(k.PrivateKey), nil
}

func (w *KeyWallet) Address() common.Address {
	return w.addr
}

func (w *KeyWallet) Transactor(ctx context.Context, chainID *mbig.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func (w *KeyWallet) SignText(text []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(text), w.key)
	if err != nil {
		return nil, err
	}
	// wallets present the recovery id in the legacy 27/28 form
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

package backend

import (
	"context"
	"fmt"
	mbig "math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/types"
)

const (
	LoginStatement = "Banyan Estuary Login"
	siweVersion    = "1"
)

// SignInMessage is an EIP-4361 sign-in message.
type SignInMessage struct {
	Domain    string
	Address   common.Address
	Statement string
	URI       string
	ChainID   uint64
	Nonce     string
	IssuedAt  time.Time
}

// String renders the message in the EIP-4361 text layout that gets signed.
func (m SignInMessage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", m.Domain)
	fmt.Fprintf(&b, "%s\n\n", m.Address.Hex())
	if m.Statement != "" {
		fmt.Fprintf(&b, "%s\n\n", m.Statement)
	}
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", siweVersion)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// Signer is the part of a wallet needed to sign in.
type Signer interface {
	Address() common.Address
	SignText(text []byte) ([]byte, error)
}

// SignIn performs the nonce, sign, login exchange and returns the bearer
// token issued by the backend.
func (c *Client) SignIn(ctx context.Context, signer Signer, chainID *mbig.Int, ens string) (string, time.Time, error) {
	if signer == nil {
		return "", time.Time{}, xerrors.Errorf("%w: no wallet connected", types.ErrAuthRequired)
	}
	if chainID == nil || !chainID.IsUint64() {
		return "", time.Time{}, xerrors.Errorf("%w: bad chain id %v", types.ErrInvalidInput, chainID)
	}
	nonce, err := c.Nonce(ctx)
	if err != nil {
		return "", time.Time{}, xerrors.Errorf("get nonce: %w", err)
	}

	host := c.api.HostURL
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return "", time.Time{}, xerrors.Errorf("%w: api host %q", types.ErrInvalidInput, host)
	}
	msg := SignInMessage{
		Domain:    u.Host,
		Address:   signer.Address(),
		Statement: LoginStatement,
		URI:       u.Scheme + "://" + u.Host,
		ChainID:   chainID.Uint64(),
		Nonce:     nonce,
		IssuedAt:  time.Now(),
	}.String()

	sig, err := signer.SignText([]byte(msg))
	if err != nil {
		return "", time.Time{}, xerrors.Errorf("sign login message: %w", err)
	}
	token, expires, err := c.Login(ctx, msg, ens, hexutil.Encode(sig))
	if err != nil {
		return "", time.Time{}, err
	}
	log.Infow("signed in", "address", signer.Address().Hex(), "host", u.Host)
	return token, expires, nil
}

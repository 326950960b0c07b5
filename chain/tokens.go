package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/utils"
)

// Token describes an ERC20 token deals can be denominated in.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

// TokenBook resolves token symbols to contract addresses and back.
type TokenBook map[string]Token

func NewTokenBook(tokens ...Token) TokenBook {
	return utils.ToMap(tokens, func(t Token) string { return strings.ToUpper(t.Symbol) })
}

// Resolve accepts either a known symbol or a hex address.
func (b TokenBook) Resolve(denomination string) (common.Address, error) {
	if t, ok := b[strings.ToUpper(denomination)]; ok {
		return t.Address, nil
	}
	if common.IsHexAddress(denomination) {
		return common.HexToAddress(denomination), nil
	}
	return common.Address{}, xerrors.Errorf("unknown token denomination %q", denomination)
}

// Denomination returns the symbol for addr, or its hex form when unknown.
func (b TokenBook) Denomination(addr common.Address) string {
	for _, t := range b {
		if t.Address == addr {
			return t.Symbol
		}
	}
	return addr.Hex()
}

// Decimals returns the decimals of the token, or def when it is unknown.
func (b TokenBook) Decimals(denomination string, def uint8) uint8 {
	if t, ok := b[strings.ToUpper(denomination)]; ok {
		return t.Decimals
	}
	for _, t := range b {
		if common.IsHexAddress(denomination) && t.Address == common.HexToAddress(denomination) {
			return t.Decimals
		}
	}
	return def
}

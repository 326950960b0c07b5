package types

import (
	mbig "math/big"
	"strings"

	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"
)

// DefaultTokenDecimals is used for tokens the configuration does not describe.
const DefaultTokenDecimals = 18

// TokenAmount is an amount of an ERC20 token expressed in its base units.
type TokenAmount = big.Int

// ParseTokenAmount converts a human readable decimal such as "0.01" into base
// units of a token with the given number of decimals. The conversion is exact:
// inputs carrying more fractional digits than the token supports are rejected.
func ParseTokenAmount(s string, decimals uint8) (TokenAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return big.Zero(), xerrors.Errorf("%w: empty token amount", ErrInvalidInput)
	}

	r, ok := new(mbig.Rat).SetString(s)
	if !ok {
		return big.Zero(), xerrors.Errorf("%w: failed to parse token amount %q", ErrInvalidInput, s)
	}
	if r.Sign() < 0 {
		return big.Zero(), xerrors.Errorf("%w: negative token amount %q", ErrInvalidInput, s)
	}

	r = r.Mul(r, new(mbig.Rat).SetInt(pow10(decimals)))
	if !r.IsInt() {
		return big.Zero(), xerrors.Errorf("%w: %q has more than %d decimals", ErrInvalidInput, s, decimals)
	}

	return big.NewFromGo(r.Num()), nil
}

// MustParseTokenAmount is ParseTokenAmount for constants.
func MustParseTokenAmount(s string, decimals uint8) TokenAmount {
	v, err := ParseTokenAmount(s, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatTokenAmount renders base units as a decimal string without trailing
// zeros, the inverse of ParseTokenAmount.
func FormatTokenAmount(v TokenAmount, decimals uint8) string {
	if v.Nil() {
		return "0"
	}
	r := new(mbig.Rat).SetFrac(v.Int, pow10(decimals))
	out := r.FloatString(int(decimals))
	if strings.Contains(out, ".") {
		out = strings.TrimRight(strings.TrimRight(out, "0"), ".")
	}
	return out
}

func pow10(decimals uint8) *mbig.Int {
	return new(mbig.Int).Exp(mbig.NewInt(10), mbig.NewInt(int64(decimals)), nil)
}

// ScaleBySize returns floor(rate * size / unit), multiplying before dividing
// so that no precision is lost ahead of the single truncation.
func ScaleBySize(rate TokenAmount, size, unit uint64) (TokenAmount, error) {
	if unit == 0 {
		return big.Zero(), xerrors.Errorf("%w: unit size must be positive", ErrInvalidInput)
	}
	if rate.Nil() {
		return big.Zero(), nil
	}
	return big.Div(big.Mul(rate, big.NewIntUnsigned(size)), big.NewIntUnsigned(unit)), nil
}

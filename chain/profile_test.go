package chain

import (
	mbig "math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyancomputer/banyan-client/proposal"
	"github.com/banyancomputer/banyan-client/types"
)

var (
	usdcAddress = common.HexToAddress("0x07865c6E87B9F70255377e024ace6630C1Eaa37F")
	testTokens  = NewTokenBook(Token{Symbol: "USDC", Address: usdcAddress, Decimals: 6})
)

func testProposal() *types.DealProposal {
	return &types.DealProposal{
		ExecutorAddress:        "0x00000000000000000000000000000000000000aa",
		DealLengthInBlocks:     proposal.BlocksPerYear,
		ProofFrequencyInBlocks: 1,
		Bounty:                 types.MustParseTokenAmount("40", 6),
		Collateral:             types.MustParseTokenAmount("0.04", 6),
		TokenDenomination:      "USDC",
		FileSize:               4 * proposal.TiB,
		ContentID:              "bafy123",
		IntegrityHash:          "b3hash456",
	}
}

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, p.Name)
	assert.Equal(t, ExtractEvent, p.Extraction)

	_, err = LookupProfile("v9")
	assert.Error(t, err)

	assert.Equal(t, []string{ProfileBanyanV2, ProfileBanyanV3, ProfileEthDealV1, ProfileOfferV0}, ProfileNames())
}

func TestEncodeCreate(t *testing.T) {
	for _, name := range ProfileNames() {
		p, err := LookupProfile(name)
		require.NoError(t, err)

		params, err := p.EncodeCreate(testProposal(), testTokens)
		require.NoError(t, err, name)
		require.Len(t, params, 9)
		assert.Equal(t, common.HexToAddress("0xaa"), params[0])
		assert.Equal(t, mbig.NewInt(40_000_000), params[3])
		assert.Equal(t, "bafy123", params[7])
		assert.Equal(t, "b3hash456", params[8])
		if p.Token == TokenAsAddress {
			assert.Equal(t, usdcAddress, params[5])
		} else {
			assert.Equal(t, "USDC", params[5])
		}

		// the positional layout must be accepted by the abi
		_, err = p.ABI.Pack(p.CreateMethod, params...)
		assert.NoError(t, err, name)
	}
}

func TestEncodeCreateInvalid(t *testing.T) {
	p, err := LookupProfile(ProfileBanyanV3)
	require.NoError(t, err)

	bad := testProposal()
	bad.ExecutorAddress = "executor"
	_, err = p.EncodeCreate(bad, testTokens)
	assert.ErrorIs(t, err, types.ErrInvalidProposal)

	bad = testProposal()
	bad.TokenDenomination = "DOGE"
	_, err = p.EncodeCreate(bad, testTokens)
	assert.ErrorIs(t, err, types.ErrInvalidProposal)

	bad.TokenDenomination = usdcAddress.Hex()
	_, err = p.EncodeCreate(bad, TokenBook{})
	assert.NoError(t, err)
}

func dealTuple(raw uint8, token interface{}) []interface{} {
	return []interface{}{
		raw,
		common.HexToAddress("0x01"),
		common.HexToAddress("0xaa"),
		mbig.NewInt(100),
		mbig.NewInt(proposal.BlocksPerYear),
		mbig.NewInt(1),
		mbig.NewInt(40_000_000),
		mbig.NewInt(40_000),
		token,
		new(mbig.Int).SetUint64(4 * proposal.TiB),
		"bafy123",
		"b3hash456",
	}
}

func TestDecodeDeal(t *testing.T) {
	p, err := LookupProfile(ProfileBanyanV3)
	require.NoError(t, err)

	d, raw, err := p.DecodeDeal(42, dealTuple(3, usdcAddress), testTokens)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), raw)
	assert.Equal(t, types.DealStatusActive, d.Status)
	assert.Equal(t, types.DealID(42), d.ID)
	assert.Equal(t, "USDC", d.TokenDenomination)
	assert.Equal(t, "40000000", d.Bounty.String())
	assert.Equal(t, 4*proposal.TiB, d.FileSize)
	assert.Equal(t, uint64(100), d.DealStartBlock)

	v2, err := LookupProfile(ProfileBanyanV2)
	require.NoError(t, err)
	d, _, err = v2.DecodeDeal(1, dealTuple(7, "USDC"), nil)
	require.NoError(t, err)
	assert.Equal(t, types.DealStatusFinalized, d.Status)

	_, _, err = p.DecodeDeal(1, dealTuple(3, usdcAddress)[:11], testTokens)
	assert.Error(t, err)

	broken := dealTuple(3, usdcAddress)
	broken[10] = 5
	_, _, err = p.DecodeDeal(1, broken, testTokens)
	assert.Error(t, err)
}

func TestTokenBook(t *testing.T) {
	addr, err := testTokens.Resolve("usdc")
	require.NoError(t, err)
	assert.Equal(t, usdcAddress, addr)

	other := common.HexToAddress("0xbeef")
	addr, err = testTokens.Resolve(other.Hex())
	require.NoError(t, err)
	assert.Equal(t, other, addr)

	_, err = testTokens.Resolve("DAI")
	assert.Error(t, err)

	assert.Equal(t, "USDC", testTokens.Denomination(usdcAddress))
	assert.Equal(t, other.Hex(), testTokens.Denomination(other))
	assert.Equal(t, uint8(6), testTokens.Decimals("USDC", 18))
	assert.Equal(t, uint8(18), testTokens.Decimals("DAI", 18))
}

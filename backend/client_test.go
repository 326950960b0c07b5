package backend

import (
	"context"
	"encoding/json"
	"io"
	mbig "math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyancomputer/banyan-client/chain"
	"github.com/banyancomputer/banyan-client/types"
)

type staticToken string

func (s staticToken) BearerToken() (string, error) {
	if s == "" {
		return "", types.ErrAuthRequired
	}
	return string(s), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestUpdateDealID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/content/update-deal-id", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body["dealId"])

		switch body["estuaryId"] {
		case "est-1":
			writeJSON(w, http.StatusOK, map[string]interface{}{"dealId": 42})
		case "est-2":
			writeJSON(w, http.StatusOK, map[string]interface{}{})
		case "est-5":
			writeJSON(w, http.StatusOK, map[string]interface{}{"dealId": 41})
		case "est-3":
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "You are not authorized."})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, staticToken("tok"), time.Second*5)
	ctx := context.Background()

	recorded, err := c.UpdateDealID(ctx, "est-1", 42)
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = c.UpdateDealID(ctx, "est-2", 42)
	require.NoError(t, err)
	assert.False(t, recorded)

	// a different deal id echoed back is not a confirmation
	recorded, err = c.UpdateDealID(ctx, "est-5", 42)
	require.NoError(t, err)
	assert.False(t, recorded)

	_, err = c.UpdateDealID(ctx, "est-3", 42)
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	_, err = c.UpdateDealID(ctx, "est-4", 42)
	assert.ErrorIs(t, err, types.ErrQuery)

	_, err = c.UpdateDealID(ctx, "", 42)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = NewClient(srv.URL, srv.URL, staticToken(""), 0).UpdateDealID(ctx, "est-1", 42)
	assert.ErrorIs(t, err, types.ErrAuthRequired)
}

func TestPinStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pinning/pins/7":
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"requestid": 7,
				"status":    "pinned",
				"pin":       map[string]string{"cid": "bafy123", "name": "a.bin"},
				"delegates": []string{"/ip4/1.2.3.4/tcp/6744/p2p/12D3Koo"},
			})
		case "/pinning/pins/8":
			writeJSON(w, http.StatusOK, map[string]interface{}{"requestid": "8", "status": "pinning"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("http://127.0.0.1:1", srv.URL, staticToken("tok"), 0)
	ctx := context.Background()

	st, err := c.PinStatus(ctx, "7")
	require.NoError(t, err)
	assert.True(t, st.Pinned())
	assert.Equal(t, FlexString("7"), st.RequestID)
	assert.Equal(t, "bafy123", st.Pin.Cid)
	assert.Len(t, st.Delegates, 1)

	st, err = c.PinStatus(ctx, "8")
	require.NoError(t, err)
	assert.False(t, st.Pinned())

	_, err = c.PinStatus(ctx, "9")
	assert.ErrorIs(t, err, types.ErrQuery)
}

func TestContentStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/content/stats", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": 1, "cid": "bafy1", "filename": "a", "dealId": "42"},
			{"id": 2, "cid": "bafy2", "filename": "b"},
		})
	}))
	defer srv.Close()

	stats, err := NewClient(srv.URL, srv.URL, staticToken("tok"), 0).ContentStats(context.Background(), 10, 5)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, ContentStat{ID: "1", Cid: "bafy1", Filename: "a", DealID: "42"}, stats[0])
	assert.Equal(t, FlexString(""), stats[1].DealID)
}

func TestSignIn(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	wallet := chain.NewKeyWallet(key)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nonce":
			_, _ = io.WriteString(w, "\"abc-123\"\n")
		case "/login":
			var req loginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Contains(t, req.Message, "wants you to sign in with your Ethereum account:\n"+wallet.Address().Hex())
			assert.Contains(t, req.Message, "Nonce: abc123\n")
			assert.Contains(t, req.Message, "Chain ID: 5\n")
			assert.Contains(t, req.Message, LoginStatement)

			sig, err := hexutil.Decode(req.Signature)
			require.NoError(t, err)
			require.Len(t, sig, 65)
			sig[64] -= 27
			pub, err := crypto.SigToPub(accounts.TextHash([]byte(req.Message)), sig)
			require.NoError(t, err)
			if crypto.PubkeyToAddress(*pub) != wallet.Address() {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "bad signature"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"token": "EST-TOKEN", "expiry": "2030-01-01T00:00:00Z"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, nil, 0)
	token, expires, err := c.SignIn(context.Background(), wallet, mbig.NewInt(5), "")
	require.NoError(t, err)
	assert.Equal(t, "EST-TOKEN", token)
	assert.Equal(t, 2030, expires.Year())

	_, _, err = c.SignIn(context.Background(), nil, mbig.NewInt(5), "")
	assert.ErrorIs(t, err, types.ErrAuthRequired)
}

func TestSignInMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	msg := SignInMessage{
		Domain:    "localhost:4443",
		Address:   addr,
		Statement: LoginStatement,
		URI:       "http://localhost:4443",
		ChainID:   1,
		Nonce:     "n0nce",
		IssuedAt:  time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
	}.String()

	lines := strings.Split(msg, "\n")
	assert.Equal(t, "localhost:4443 wants you to sign in with your Ethereum account:", lines[0])
	assert.Equal(t, addr.Hex(), lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, LoginStatement, lines[3])
	assert.Equal(t, "Issued At: 2023-01-02T03:04:05Z", lines[len(lines)-1])
}

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/chain"
	"github.com/banyancomputer/banyan-client/types"
)

// TokenFile is the file the bearer token is kept in, inside the repo.
const TokenFile = "token.json"

// Session is the explicit authentication context shared by the staging and
// backend clients: the hosts to talk to, the bearer token obtained at login
// and the connected wallet.
type Session struct {
	APIHost     string
	StagingHost string

	lk      sync.RWMutex
	token   string
	expires time.Time
	wallet  chain.Wallet
}

func New(apiHost, stagingHost string) *Session {
	return &Session{
		APIHost:     strings.TrimRight(apiHost, "/"),
		StagingHost: strings.TrimRight(stagingHost, "/"),
	}
}

// SetToken stores the bearer token. A zero expiry never expires.
func (s *Session) SetToken(token string, expires time.Time) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.token = token
	s.expires = expires
}

// BearerToken returns ErrAuthRequired when there is no valid token.
func (s *Session) BearerToken() (string, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	if s.token == "" {
		return "", xerrors.Errorf("%w: not logged in", types.ErrAuthRequired)
	}
	if !s.expires.IsZero() && time.Now().After(s.expires) {
		return "", xerrors.Errorf("%w: token expired at %s", types.ErrAuthRequired, s.expires.Format(time.RFC3339))
	}
	return s.token, nil
}

func (s *Session) SetWallet(w chain.Wallet) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.wallet = w
}

// Wallet returns ErrAuthRequired when no wallet is connected.
func (s *Session) Wallet() (chain.Wallet, error) {
	s.lk.RLock()
	defer s.lk.RUnlock()
	if s.wallet == nil {
		return nil, xerrors.Errorf("%w: no wallet connected", types.ErrAuthRequired)
	}
	return s.wallet, nil
}

// Logout drops the token. The wallet stays connected.
func (s *Session) Logout() {
	s.SetToken("", time.Time{})
}

type tokenFile struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires,omitempty"`
	APIHost string    `json:"apiHost,omitempty"`
}

// Save writes the token to dir/TokenFile with owner only permissions.
func (s *Session) Save(dir string) error {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return err
	}
	s.lk.RLock()
	data, err := json.MarshalIndent(tokenFile{Token: s.token, Expires: s.expires, APIHost: s.APIHost}, "", "  ")
	s.lk.RUnlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, TokenFile), data, 0600)
}

// Load reads a token saved by Save. A missing file leaves the session logged
// out.
func (s *Session) Load(dir string) error {
	dir, err := homedir.Expand(dir)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(dir, TokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var tf tokenFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return xerrors.Errorf("parse %s: %w", TokenFile, err)
	}
	if tf.APIHost != "" && tf.APIHost != s.APIHost {
		log.Warnw("ignoring token issued for another api host", "token_host", tf.APIHost, "api_host", s.APIHost)
		return nil
	}
	s.SetToken(tf.Token, tf.Expires)
	return nil
}

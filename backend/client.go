package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/types"
)

var log = logging.Logger("backend")

// Credentials supplies the bearer token sent with authenticated requests.
type Credentials interface {
	BearerToken() (string, error)
}

// Client talks to the Banyan backend API and to the pinning endpoints of the
// staging service.
type Client struct {
	api     *resty.Client
	staging *resty.Client
	creds   Credentials
}

func NewClient(apiHost, stagingHost string, creds Credentials, timeout time.Duration) *Client {
	newResty := func(host string) *resty.Client {
		cli := resty.New().SetHostURL(strings.TrimRight(host, "/")).SetHeader("Accept", "application/json")
		if timeout > 0 {
			cli.SetTimeout(timeout)
		}
		return cli
	}
	return &Client{
		api:     newResty(apiHost),
		staging: newResty(stagingHost),
		creds:   creds,
	}
}

func (c *Client) authed(ctx context.Context, cli *resty.Client) (*resty.Request, error) {
	if c.creds == nil {
		return nil, xerrors.Errorf("%w: no credentials", types.ErrAuthRequired)
	}
	token, err := c.creds.BearerToken()
	if err != nil {
		return nil, err
	}
	return cli.R().SetContext(ctx).SetAuthToken(token), nil
}

// FlexString decodes both JSON strings and numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return xerrors.Errorf("expected string or number, got %s", string(b))
	}
	*f = FlexString(n.String())
	return nil
}

type updateDealIDRequest struct {
	EstuaryID string `json:"estuaryId"`
	DealID    string `json:"dealId"`
}

type updateDealIDResponse struct {
	DealID FlexString `json:"dealId"`
	Error  string     `json:"error"`
}

// UpdateDealID links a staged upload to its on-chain deal. recorded is false,
// with a nil error, when the backend answers without echoing the deal id.
func (c *Client) UpdateDealID(ctx context.Context, stagingID string, id types.DealID) (recorded bool, err error) {
	const op = "update-deal-id"
	defer func() { recordRequest(ctx, op, err) }()

	if stagingID == "" {
		return false, xerrors.Errorf("%w: empty staging id", types.ErrInvalidInput)
	}
	req, err := c.authed(ctx, c.api)
	if err != nil {
		return false, err
	}
	var out updateDealIDResponse
	resp, err := req.SetBody(updateDealIDRequest{EstuaryID: stagingID, DealID: id.String()}).
		SetResult(&out).
		Post("/content/update-deal-id")
	if err := checkResponse(op, resp, err); err != nil {
		return false, err
	}
	if out.Error != "" {
		return false, &types.QueryError{Op: op, Err: xerrors.New(out.Error)}
	}
	if out.DealID == "" {
		log.Warnw("backend did not confirm deal id", "staging_id", stagingID, "deal", id)
		return false, nil
	}
	if string(out.DealID) != id.String() {
		log.Warnw("backend confirmed a different deal id", "staging_id", stagingID, "deal", id, "confirmed", out.DealID)
		return false, nil
	}
	return true, nil
}

// PinStatus is the pinning service view of a staged upload.
type PinStatus struct {
	RequestID FlexString `json:"requestid"`
	Status    string     `json:"status"`
	Created   string     `json:"created"`
	Pin       struct {
		Cid  string `json:"cid"`
		Name string `json:"name"`
	} `json:"pin"`
	Delegates []string          `json:"delegates"`
	Info      map[string]string `json:"info"`
}

const StatusPinned = "pinned"

func (p *PinStatus) Pinned() bool {
	return p != nil && p.Status == StatusPinned
}

// PinStatus queries the staging service for the pin of a staged upload.
func (c *Client) PinStatus(ctx context.Context, stagingID string) (_ *PinStatus, err error) {
	const op = "pin-status"
	defer func() { recordRequest(ctx, op, err) }()

	req, err := c.authed(ctx, c.staging)
	if err != nil {
		return nil, err
	}
	var out PinStatus
	resp, err := req.SetPathParams(map[string]string{"id": stagingID}).
		SetResult(&out).
		Get("/pinning/pins/{id}")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContentStat is one entry of the backend's content listing.
type ContentStat struct {
	ID       FlexString `json:"id"`
	Cid      string     `json:"cid"`
	Filename string     `json:"filename"`
	DealID   FlexString `json:"dealId"`
}

// ContentStats lists staged content together with its deal id, if any.
func (c *Client) ContentStats(ctx context.Context, offset, limit int) (_ []ContentStat, err error) {
	const op = "content-stats"
	defer func() { recordRequest(ctx, op, err) }()

	req, err := c.authed(ctx, c.api)
	if err != nil {
		return nil, err
	}
	var out []ContentStat
	resp, err := req.SetQueryParams(map[string]string{
		"offset": strconv.Itoa(offset),
		"limit":  strconv.Itoa(limit),
	}).SetResult(&out).Get("/content/stats")
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

// Nonce fetches a fresh login nonce. Non alphanumeric characters are dropped.
func (c *Client) Nonce(ctx context.Context) (_ string, err error) {
	const op = "nonce"
	defer func() { recordRequest(ctx, op, err) }()

	resp, err := c.api.R().SetContext(ctx).SetHeader("Accept", "text/plain").Get("/nonce")
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}
	nonce := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, string(resp.Body()))
	if nonce == "" {
		return "", &types.QueryError{Op: op, Err: xerrors.New("empty nonce")}
	}
	return nonce, nil
}

type loginRequest struct {
	Message   string `json:"message"`
	Ens       string `json:"ens"`
	Signature string `json:"signature"`
}

type loginResponse struct {
	Token  string `json:"token"`
	Expiry string `json:"expiry"`
}

// Login exchanges a signed sign-in message for a bearer token.
func (c *Client) Login(ctx context.Context, message, ens, signature string) (token string, expires time.Time, err error) {
	const op = "login"
	defer func() { recordRequest(ctx, op, err) }()

	var out loginResponse
	resp, err := c.api.R().SetContext(ctx).
		SetBody(loginRequest{Message: message, Ens: ens, Signature: signature}).
		SetResult(&out).
		Post("/login")
	if err := checkResponse(op, resp, err); err != nil {
		return "", time.Time{}, err
	}
	if out.Token == "" {
		return "", time.Time{}, xerrors.Errorf("%w: login returned no token", types.ErrAuthRequired)
	}
	if out.Expiry != "" {
		if t, perr := time.Parse(time.RFC3339, out.Expiry); perr == nil {
			expires = t
		}
	}
	return out.Token, expires, nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		if xerrors.Is(err, context.DeadlineExceeded) {
			return xerrors.Errorf("%w: %s: %v", types.ErrTimeout, op, err)
		}
		return &types.QueryError{Op: op, Err: err}
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return xerrors.Errorf("%w: %s: [%d] %s", types.ErrAuthRequired, op, code, strings.TrimSpace(string(resp.Body())))
	case code < 200 || code > 299:
		return &types.QueryError{Op: op, Err: fmt.Errorf("[%d] %s", code, strings.TrimSpace(string(resp.Body())))}
	}
	return nil
}

func recordRequest(ctx context.Context, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.MethodTag, op),
		tag.Upsert(metrics.OutcomeTag, outcome),
	}, metrics.BackendRequestCount.M(1))
}

package staging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/raulk/clock"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/types"
	"github.com/banyancomputer/banyan-client/utils"
)

var log = logging.Logger("staging")

const (
	// FormField is the multipart field the staging service reads the file from.
	FormField = "data"
	// AddPath is appended to the staging host when no endpoint is configured.
	AddPath = "/content/add"

	maxResponseBody = 1 << 20
)

// Credentials supplies the bearer token for the staging service.
type Credentials interface {
	BearerToken() (string, error)
}

// Upload is the file content to stage. Size must match the number of bytes
// Body yields.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// OpenUpload opens a local file for staging. The caller closes the file.
func OpenUpload(path string) (Upload, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return Upload{}, nil, xerrors.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return Upload{}, nil, xerrors.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return Upload{}, nil, xerrors.Errorf("%w: %s is a directory", types.ErrInvalidInput, path)
	}
	return Upload{Name: filepath.Base(path), Size: fi.Size(), Body: f}, f, nil
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// Client uploads files to the staging service. It never retries.
type Client struct {
	endpoint   string
	creds      Credentials
	httpClient *http.Client
	clock      clock.Clock
}

// NewClient returns a client posting to endpoint. A bare host gets AddPath
// appended.
func NewClient(endpoint string, creds Credentials, opts ...Option) *Client {
	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasSuffix(endpoint, AddPath) {
		endpoint += AddPath
	}
	c := &Client{
		endpoint:   endpoint,
		creds:      creds,
		httpClient: http.DefaultClient,
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Stage streams the upload to the staging service in a single multipart request and
// returns the content identifiers it reports.
func (c *Client) Stage(ctx context.Context, up Upload, onProgress ProgressFunc) (res *types.StagingResult, err error) {
	if up.Body == nil || up.Size <= 0 {
		return nil, xerrors.Errorf("%w: nothing to upload", types.ErrInvalidInput)
	}
	if c.creds == nil {
		return nil, xerrors.Errorf("%w: no staging credentials", types.ErrAuthRequired)
	}
	token, err := c.creds.BearerToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, xerrors.Errorf("%w: empty staging token", types.ErrAuthRequired)
	}

	start := c.clock.Now()
	defer func() {
		recordStage(ctx, up.Size, err, c.clock.Since(start))
	}()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		part, err := mw.CreateFormFile(FormField, up.Name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		counter := utils.NewCounterReader(up.Body, func(total int64) {
			if onProgress != nil {
				onProgress(total, up.Size, c.clock.Since(start))
			}
		})
		if _, err := io.Copy(part, counter); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()
	// no progress callback may fire after Stage returns
	defer func() {
		_ = pr.Close()
		<-written
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		return nil, &types.UploadError{Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	log.Infow("staging file", "name", up.Name, "size", up.Size, "endpoint", c.endpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &types.UploadError{Err: xerrors.Errorf("%w: staging %s: %v", types.ErrTimeout, up.Name, err)}
		}
		return nil, &types.UploadError{Err: err}
	}
	defer resp.Body.Close() //nolint

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &types.UploadError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.UploadError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	res, err = parseAddResponse(body)
	if err != nil {
		return nil, &types.UploadError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	log.Infow("file staged", "name", up.Name, "cid", res.ContentID, "staging_id", res.StagingID)
	return res, nil
}

var (
	cidKeys       = []string{"cid", "Cid"}
	hashKeys      = []string{"blake3hash", "blake3", "Blake3"}
	stagingIDKeys = []string{"estuaryId", "EstuaryId"}
)

func parseAddResponse(body []byte) (*types.StagingResult, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, xerrors.Errorf("decode staging response: %w", err)
	}

	res := &types.StagingResult{
		ContentID:     normalizeCid(pick(raw, cidKeys)),
		IntegrityHash: pick(raw, hashKeys),
		StagingID:     pick(raw, stagingIDKeys),
	}
	if res.ContentID == "" || res.IntegrityHash == "" {
		return nil, xerrors.New("staging response is missing cid or blake3 hash")
	}
	return res, nil
}

func pick(raw map[string]interface{}, keys []string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case map[string]interface{}:
			// dag-json link form {"/": "<cid>"}
			if s, ok := v["/"].(string); ok {
				return s
			}
		}
	}
	return ""
}

// normalizeCid prints parseable cids in their canonical string form.
func normalizeCid(s string) string {
	c, err := cid.Decode(s)
	if err != nil {
		return s
	}
	return c.String()
}

func recordStage(ctx context.Context, size int64, err error, took time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ms := []stats.Measurement{metrics.StageCount.M(1), metrics.StageDuration.M(metrics.SinceInMilliseconds(took))}
	if err == nil {
		ms = append(ms, metrics.StagedBytes.M(size))
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(metrics.OutcomeTag, outcome)}, ms...)
}

func (up Upload) String() string {
	return fmt.Sprintf("%s (%d bytes)", up.Name, up.Size)
}

package staging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyancomputer/banyan-client/types"
)

type staticToken string

func (s staticToken) BearerToken() (string, error) {
	if s == "" {
		return "", types.ErrAuthRequired
	}
	return string(s), nil
}

type received struct {
	auth     string
	filename string
	data     []byte
}

func newStagingServer(t *testing.T, status int, resp interface{}) (*httptest.Server, *received, *int32) {
	var (
		calls int32
		got   = &received{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AddPath, r.URL.Path)
		got.auth = r.Header.Get("Authorization")

		file, header, err := r.FormFile(FormField)
		if assert.NoError(t, err) {
			got.filename = header.Filename
			got.data, _ = io.ReadAll(file)
		}

		w.WriteHeader(status)
		switch v := resp.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		default:
			_ = json.NewEncoder(w).Encode(v)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, got, &calls
}

func TestStage(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	srv, got, calls := newStagingServer(t, http.StatusOK, map[string]interface{}{
		"cid":       "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku",
		"blake3":    "b3hash456",
		"estuaryId": 42,
	})

	var (
		lk    sync.Mutex
		loads []int64
	)
	c := NewClient(srv.URL, staticToken("secret"))
	res, err := c.Stage(context.Background(), Upload{Name: "a.bin", Size: int64(len(content)), Body: bytes.NewReader(content)},
		func(loaded, total int64, elapsed time.Duration) {
			lk.Lock()
			defer lk.Unlock()
			assert.Equal(t, int64(len(content)), total)
			loads = append(loads, loaded)
		})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, "a.bin", got.filename)
	assert.Equal(t, content, got.data)

	assert.Equal(t, "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku", res.ContentID)
	assert.Equal(t, "b3hash456", res.IntegrityHash)
	assert.Equal(t, "42", res.StagingID)

	lk.Lock()
	defer lk.Unlock()
	require.NotEmpty(t, loads)
	for i := 1; i < len(loads); i++ {
		assert.GreaterOrEqual(t, loads[i], loads[i-1])
	}
	assert.Equal(t, int64(len(content)), loads[len(loads)-1])
}

func TestStageAlternateFieldNames(t *testing.T) {
	srv, _, _ := newStagingServer(t, http.StatusOK, `{"Cid":"not-a-cid","blake3hash":"h","EstuaryId":"e-7"}`)

	res, err := NewClient(srv.URL+AddPath, staticToken("secret")).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	require.NoError(t, err)
	assert.Equal(t, &types.StagingResult{ContentID: "not-a-cid", IntegrityHash: "h", StagingID: "e-7"}, res)
}

func TestStageNon2xx(t *testing.T) {
	srv, _, calls := newStagingServer(t, http.StatusInternalServerError, "disk full\n")

	_, err := NewClient(srv.URL, staticToken("secret")).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUpload)
	assert.True(t, types.Retryable(err))

	var ue *types.UploadError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusInternalServerError, ue.StatusCode)
	assert.Equal(t, "disk full", ue.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestStageMissingHash(t *testing.T) {
	srv, _, _ := newStagingServer(t, http.StatusOK, map[string]string{"cid": "bafy123"})

	_, err := NewClient(srv.URL, staticToken("secret")).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	assert.ErrorIs(t, err, types.ErrUpload)
}

func TestStageNoToken(t *testing.T) {
	srv, _, calls := newStagingServer(t, http.StatusOK, map[string]string{})

	_, err := NewClient(srv.URL, staticToken("")).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	assert.ErrorIs(t, err, types.ErrAuthRequired)

	_, err = NewClient(srv.URL, nil).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	assert.ErrorIs(t, err, types.ErrAuthRequired)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestStageInvalidUpload(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", staticToken("secret"))

	_, err := c.Stage(context.Background(), Upload{Name: "nil"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = c.Stage(context.Background(), Upload{Name: "empty", Body: bytes.NewReader(nil)}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestStageTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, staticToken("secret")).Stage(context.Background(),
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	assert.ErrorIs(t, err, types.ErrUpload)
}

func TestStageTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, staticToken("secret")).Stage(ctx,
		Upload{Name: "b", Size: 3, Body: bytes.NewReader([]byte("abc"))}, nil)
	assert.ErrorIs(t, err, types.ErrUpload)
	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.True(t, types.Retryable(err))
}

func TestOpenUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	up, f, err := OpenUpload(path)
	require.NoError(t, err)
	defer f.Close() //nolint
	assert.Equal(t, "file.txt", up.Name)
	assert.Equal(t, int64(5), up.Size)

	_, _, err = OpenUpload(dir)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	_, _, err = OpenUpload(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestProgress(t *testing.T) {
	p := NewProgress(50, 100, 5*time.Second)
	assert.Equal(t, 10.0, p.BytesPerSecond())
	secs, ok := p.SecondsRemaining()
	require.True(t, ok)
	assert.Equal(t, 5.0, secs)
	assert.Equal(t, 50.0, p.Percent())
	assert.Contains(t, p.String(), "50.0%")

	_, ok = NewProgress(0, 100, 0).SecondsRemaining()
	assert.False(t, ok)
}

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/logging"
	"github.com/crytic/manganis/version"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoSize bounds the number of URLs whose metadata is kept in memory.
const DefaultMemoSize = 1024

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Client looks up remote assets over HTTP. Metadata of each URL is requested at most once per process, concurrent
// lookups of the same URL wait for the first one. A Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	memo       *lru.Cache[string, assets.RemoteMetadata]
	store      *Store
	logger     *logging.Logger

	// locks holds one mutex per URL currently or previously looked up.
	locksMutex sync.Mutex
	locks      map[string]*sync.Mutex
}

var _ assets.RemoteInspector = (*Client)(nil)

// Options configures a Client.
type Options struct {
	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
	// MemoSize bounds the in-memory metadata memo. Zero selects DefaultMemoSize.
	MemoSize int
	// Store persists metadata across runs. It may be nil.
	Store *Store
}

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	size := opts.MemoSize
	if size <= 0 {
		size = DefaultMemoSize
	}
	memo, err := lru.New[string, assets.RemoteMetadata](size)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		httpClient: httpClient,
		memo:       memo,
		store:      opts.Store,
		logger:     logging.GlobalLogger.NewSubLogger("module", logging.REMOTE_SERVICE),
		locks:      make(map[string]*sync.Mutex),
	}, nil
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Inspect returns the content type and freshness headers of rawURL. A HEAD request is tried first and servers that
// refuse it are asked with GET.
func (c *Client) Inspect(ctx context.Context, rawURL string) (assets.RemoteMetadata, error) {
	if meta, ok := c.memo.Get(rawURL); ok {
		return meta, nil
	}

	lock := c.lockFor(rawURL)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have finished the lookup while we waited
	if meta, ok := c.memo.Get(rawURL); ok {
		return meta, nil
	}

	if c.store != nil {
		meta, ok, err := c.store.Get(rawURL)
		if err != nil {
			c.logger.Warn("Ignoring the stored metadata of ", rawURL, err)
		} else if ok {
			c.memo.Add(rawURL, meta)
			return meta, nil
		}
	}

	meta, err := c.request(ctx, http.MethodHead, rawURL, nil)
	var statusErr *StatusError
	if err != nil && errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusMethodNotAllowed || statusErr.StatusCode == http.StatusNotImplemented) {
		c.logger.Debug("HEAD is not supported by ", rawURL, ", retrying with GET")
		meta, err = c.request(ctx, http.MethodGet, rawURL, io.Discard)
	}
	if err != nil {
		return assets.RemoteMetadata{}, err
	}

	c.remember(rawURL, meta)
	return meta, nil
}

// Fetch downloads rawURL. The response headers refresh the metadata memo.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body bytes.Buffer
	meta, err := c.request(ctx, http.MethodGet, rawURL, &body)
	if err != nil {
		return nil, err
	}
	c.remember(rawURL, meta)
	return body.Bytes(), nil
}

// remember stores meta in the memo and, when configured, the persistent store.
func (c *Client) remember(rawURL string, meta assets.RemoteMetadata) {
	c.memo.Add(rawURL, meta)
	if c.store == nil {
		return
	}
	if err := c.store.Put(rawURL, meta); err != nil {
		c.logger.Warn("Failed to persist the metadata of ", rawURL, err)
	}
}

// request performs a single request and copies the body to sink when it is not nil.
func (c *Client) request(ctx context.Context, method string, rawURL string, sink io.Writer) (assets.RemoteMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return assets.RemoteMetadata{}, err
	}
	req.Header.Set("User-Agent", "manganis/"+version.Version)

	c.logger.Trace(method, " ", rawURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return assets.RemoteMetadata{}, fmt.Errorf("request to %s failed: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return assets.RemoteMetadata{}, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if sink != nil {
		if _, err = io.Copy(sink, resp.Body); err != nil {
			return assets.RemoteMetadata{}, fmt.Errorf("failed to read %s: %w", rawURL, err)
		}
	}

	return assets.RemoteMetadata{
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}, nil
}

// lockFor returns the mutex serializing lookups of rawURL.
func (c *Client) lockFor(rawURL string) *sync.Mutex {
	c.locksMutex.Lock()
	defer c.locksMutex.Unlock()

	lock, ok := c.locks[rawURL]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[rawURL] = lock
	}
	return lock
}

package shazam

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

const (
	defaultEndpoint = "https://shazam.p.rapidapi.com/songs/v2/detect"
	defaultTimeout  = 30 * time.Second

	// maxResponseBody bounds how much of a detect response is read. Track
	// documents are tens of kilobytes; anything near this limit is garbage.
	maxResponseBody = 4 << 20
)

// ErrRequestInvalid is returned when the service rejects the request or its
// payload as invalid. In practice this is how upstream rate limiting shows
// up, so callers should back off and discard the client before retrying.
var ErrRequestInvalid = errors.New("shazam: request rejected as invalid")

type Config struct {
	Endpoint string        `yaml:"endpoint,omitempty"`
	APIKey   string        `yaml:"api-key,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Endpoint, util.PrefixConfig(prefix, "endpoint"), defaultEndpoint, "Recognition API endpoint audio segments are posted to")
	f.StringVar(&cfg.APIKey, util.PrefixConfig(prefix, "api-key"), "", "API key sent with recognition requests")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), defaultTimeout, "HTTP timeout for one recognition call")
}

// Client talks to the detect endpoint. Instances are cheap; the monitor
// throws a client away and builds a fresh one after an ErrRequestInvalid,
// since the old session may be poisoned on the service side.
type Client struct {
	endpoint string
	apiKey   string
	hc       *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		hc:       &http.Client{Timeout: cfg.Timeout},
	}
}

// Recognize posts one audio segment and returns the parsed result. A nil
// Track in the result means no match. ErrRequestInvalid wraps rejections
// that should be treated as rate limiting; any other error is transient.
func (c *Client) Recognize(ctx context.Context, sample []byte) (*Result, error) {
	body := base64.StdEncoding.EncodeToString(sample)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shazam: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
		if host, err := apiHost(c.endpoint); err == nil {
			req.Header.Set("X-RapidAPI-Host", host)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shazam: detect request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("shazam: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case rejectedAsInvalid(resp.StatusCode):
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestInvalid, resp.StatusCode, bodyExcerpt(data))
	default:
		return nil, fmt.Errorf("shazam: unexpected status %d: %s", resp.StatusCode, bodyExcerpt(data))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("shazam: failed to decode response: %w", err)
	}

	return &result, nil
}

// rejectedAsInvalid reports whether a status means the service refused the
// request itself rather than failing to serve it.
func rejectedAsInvalid(status int) bool {
	switch status {
	case http.StatusBadRequest,
		http.StatusRequestEntityTooLarge,
		http.StatusUnprocessableEntity,
		http.StatusTooManyRequests:
		return true
	}
	return false
}

func apiHost(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return u.Host, nil
}

func bodyExcerpt(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

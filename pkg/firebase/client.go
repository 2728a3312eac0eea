// Package firebase is a minimal Firebase Realtime Database REST client.
// Writes are authenticated with a Google service account; token refresh is
// handled by the oauth2 transport.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zachfi/zkit/pkg/util"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultTimeout = 15 * time.Second

// scopes the RTDB REST API requires for service-account writes.
var scopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/firebase.database",
}

type Config struct {
	DatabaseURL     string        `yaml:"database-url,omitempty"`
	CredentialsFile string        `yaml:"credentials-file,omitempty"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.DatabaseURL, util.PrefixConfig(prefix, "database-url"), "", "Realtime Database base URL, eg: https://example-rtdb.firebasedatabase.app")
	f.StringVar(&cfg.CredentialsFile, util.PrefixConfig(prefix, "credentials-file"), "serviceAccountKey.json", "Path to the service account credentials JSON")
	f.DurationVar(&cfg.Timeout, util.PrefixConfig(prefix, "timeout"), defaultTimeout, "HTTP timeout for one database call")
}

// Enabled reports whether the config points at a database. The monitor runs
// in log-only mode when it does not.
func (cfg *Config) Enabled() bool {
	return cfg.DatabaseURL != ""
}

// Client writes JSON values to database paths. All writes are idempotent
// from the caller's point of view: Put replaces, Post appends under a
// server-generated push id.
type Client struct {
	base string
	hc   *http.Client
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to parse credentials: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	hc := oauth2.NewClient(ctx, creds.TokenSource)
	hc.Timeout = cfg.Timeout

	return &Client{
		base: strings.TrimRight(cfg.DatabaseURL, "/"),
		hc:   hc,
	}, nil
}

// Put replaces the value stored at path.
func (c *Client) Put(ctx context.Context, path string, v any) error {
	return c.write(ctx, http.MethodPut, path, v)
}

// Post appends the value under a generated id at path.
func (c *Client) Post(ctx context.Context, path string, v any) error {
	return c.write(ctx, http.MethodPost, path, v)
}

func (c *Client) write(ctx context.Context, method, path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("firebase: failed to encode value for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("firebase: failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("firebase: %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("firebase: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s/%s.json", c.base, strings.Trim(path, "/"))
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/infra/buildinfo"
	"github.com/yndnr/pgpauth-go/internal/infra/tlsroots"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// DefaultTimeout bounds a whole request, including reading the body.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies a new wire token for each request.
type TokenSource interface {
	Token() (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token() (string, error) {
	return f()
}

// IssuerSource returns a TokenSource that signs every token with signer.
func IssuerSource(issuer *service.TokenIssuer, signer service.Signer) TokenSource {
	return TokenSourceFunc(func() (string, error) {
		return issuer.Issue(signer)
	})
}

// Config holds configuration for Client.
type Config struct {
	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// CAFile adds a PEM bundle to the system roots for https servers.
	CAFile string

	// UserAgent is sent with every request (default: "pgpauth-cli/<version>").
	UserAgent string

	// Logger receives request traces at debug level (default: logger.Default()).
	Logger logger.Logger
}

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   DefaultTimeout,
		UserAgent: buildinfo.UserAgent("pgpauth-cli"),
	}
}

// Client performs authenticated HTTP requests.
type Client struct {
	baseURL   string
	client    *http.Client
	tokens    TokenSource
	userAgent string
	log       logger.Logger
}

// New creates a Client for server. server may be empty when every request
// uses an absolute URL; a bare host gets an http:// prefix.
func New(server string, tokens TokenSource, config *Config) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("client: nil token source")
	}
	if config == nil {
		config = DefaultConfig()
	}

	baseURL := strings.TrimRight(server, "/")
	if baseURL != "" && !isAbsolute(baseURL) {
		baseURL = "http://" + baseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfig(config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("client: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}

	c := &Client{
		baseURL:   baseURL,
		tokens:    tokens,
		userAgent: config.UserAgent,
		log:       config.Logger,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	if c.userAgent == "" {
		c.userAgent = buildinfo.UserAgent("pgpauth-cli")
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	return c, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves a path against the base URL. Absolute URLs pass through.
func (c *Client) URL(pathOrURL string) (string, error) {
	if isAbsolute(pathOrURL) {
		return pathOrURL, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("client: relative path %q without a server", pathOrURL)
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Do sends one request with a fresh token. body, if not nil, is encoded as
// JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	target, err := c.URL(path)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	req.Header.Set(token.HeaderName, tok)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", target, "error", err)
		return nil, err
	}
	c.log.Debug("request done",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func isAbsolute(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

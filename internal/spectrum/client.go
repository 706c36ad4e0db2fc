// Package spectrum fetches device records from a CA Spectrum OneClick
// server's RESTful API and maps its attribute IDs to canonical names.
package spectrum

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spectrum-inventory/internal/domain"
)

// Environment variables consulted when the config leaves a field empty
const (
	EnvURL      = "SPECTRUM_URL"
	EnvUsername = "SPECTRUM_USERNAME"
	EnvPassword = "SPECTRUM_PASSWORD"
)

const (
	devicesPath         = "/spectrum/restful/devices"
	defaultThrottleSize = 9999
	defaultTimeout      = 60 * time.Second
)

var (
	// ErrUnexpectedStatus is returned for non-2xx responses
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrNoURL is returned when no server URL is configured
	ErrNoURL = errors.New("spectrum URL not configured")
)

// Config holds connection settings for the Spectrum server
type Config struct {
	URL      string
	Username string
	Password string
	// Verify enables TLS certificate verification
	Verify bool
	// CAFile is an optional PEM bundle used when Verify is set
	CAFile string
	// Proxy overrides the proxy taken from the environment
	Proxy           string
	Timeout         time.Duration
	ThrottleSize    int
	ExtraAttributes []string
}

// ApplyEnvironment fills empty connection fields from SPECTRUM_* variables
func (c *Config) ApplyEnvironment() {
	if c.URL == "" {
		c.URL = os.Getenv(EnvURL)
	}
	if c.Username == "" {
		c.Username = os.Getenv(EnvUsername)
	}
	if c.Password == "" {
		c.Password = os.Getenv(EnvPassword)
	}
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client built from Config
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// Client retrieves the device inventory from Spectrum
type Client struct {
	config     Config
	attrs      *AttributeMap
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient validates the config and builds a client
func NewClient(config Config, opts ...ClientOption) (*Client, error) {
	config.ApplyEnvironment()
	config.URL = strings.TrimRight(config.URL, "/")
	if config.URL == "" {
		return nil, ErrNoURL
	}
	if config.ThrottleSize <= 0 {
		config.ThrottleSize = defaultThrottleSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	attrs, err := ParseAttributeMap(config.ExtraAttributes)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		attrs:  attrs,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := newHTTPClient(config)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds the transport from TLS and proxy settings
func newHTTPClient(config Config) (*http.Client, error) {
	//nolint:gosec // Spectrum installs commonly use self-signed certificates
	tlsConfig := &tls.Config{InsecureSkipVerify: !config.Verify}

	if config.Verify && config.CAFile != "" {
		pem, err := os.ReadFile(config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", config.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}, nil
}

// Name identifies the source in logs
func (c *Client) Name() string {
	return "spectrum"
}

// Attributes returns the attributes requested from the server
func (c *Client) Attributes() []Attribute {
	return c.attrs.Attributes()
}

// DevicesURL returns the full request URL including query parameters
func (c *Client) DevicesURL() string {
	params := url.Values{}
	for _, id := range c.attrs.IDs() {
		params.Add("attr", id)
	}
	params.Set("throttlesize", strconv.Itoa(c.config.ThrottleSize))

	return c.config.URL + devicesPath + "?" + params.Encode()
}

// Fetch retrieves all devices in a single request and returns them as
// canonical records. Transport and authentication errors are returned as-is.
func (c *Client) Fetch(ctx context.Context) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DevicesURL(), http.NoBody)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")

	c.logger.Debug().
		Str("url", c.config.URL+devicesPath).
		Int("attributes", len(c.attrs.IDs())).
		Msg("Requesting devices from Spectrum")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("spectrum request: %w", err)
	}
	defer c.closeResponse(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	records, err := c.attrs.ParseDevices(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("devices", len(records)).
		Msg("Fetched devices from Spectrum")

	return records, nil
}

// closeResponse closes the HTTP response body, logging any errors
func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}

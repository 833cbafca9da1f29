package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/bytedance/sonic"
)

type HTTPMethod = string

const (
	HTTPMethodGet  HTTPMethod = "GET"
	HTTPMethodPost HTTPMethod = "POST"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPSource contains http-specific source request fields
type HTTPSource struct {
	URL     string            `json:"url"`
	Method  *HTTPMethod       `json:"method,omitempty"` // Default is GET
	Headers map[string]string `json:"headers,omitempty"`
	Timeout *int              `json:"timeout,omitempty"` // Timeout in seconds

	client *http.Client
}

// RegisterHTTP registers the http source using a client with the default
// timeout
func RegisterHTTP(r *Registry) {
	RegisterHTTPClient(r, nil)
}

// RegisterHTTPClient registers the http source with a custom client.
// A nil client gets one per source honoring its timeout.
func RegisterHTTPClient(r *Registry, client *http.Client) {
	r.Register(HTTPAdapterType, func(raw []byte) (simfs.AdapterProvider, error) {
		var config HTTPSource
		if err := sonic.Unmarshal(raw, &config); err != nil {
			return nil, err
		}
		u, err := validateURL(config.URL)
		if err != nil {
			return nil, err
		}
		config.URL = u
		config.client = client
		if config.client == nil {
			timeout := defaultHTTPTimeout
			if config.Timeout != nil && *config.Timeout > 0 {
				timeout = time.Duration(*config.Timeout) * time.Second
			}
			config.client = &http.Client{Timeout: timeout}
		}
		return &config, nil
	})
}

// validateURL accepts absolute http(s) URLs with a host and no user info
func validateURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("http source: url is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("http source: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("http source: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("http source: missing host in %q", s)
	}
	if u.User != nil {
		return "", fmt.Errorf("http source: user info is not allowed")
	}
	return u.String(), nil
}

func (h *HTTPSource) Adapter() simfs.ContentAdapter {
	return &HTTPAdapter{config: h}
}

// HTTPAdapter implements [simfs.ContentAdapter] for HTTP sources
type HTTPAdapter struct {
	config *HTTPSource
}

func (h *HTTPAdapter) newRequest(ctx context.Context, method HTTPMethod) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.config.URL, nil)
	if err != nil {
		return nil, err
	}

	// Add custom headers
	for k, v := range h.config.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Open issues the request and returns the body of a 2xx response
func (h *HTTPAdapter) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := h.newRequest(ctx, h.getMethod())
	if err != nil {
		return nil, err
	}

	resp, err := h.config.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, h.config.URL, resp.Status)
	}

	return resp.Body, nil
}

func (h *HTTPAdapter) Exists(ctx context.Context) (bool, error) {
	req, err := h.newRequest(ctx, http.MethodHead)
	if err != nil {
		return false, err
	}

	resp, err := h.config.client.Do(req)
	if err != nil {
		return false, nil
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (h *HTTPAdapter) getMethod() HTTPMethod {
	if h.config.Method != nil {
		return *h.config.Method
	}
	return HTTPMethodGet
}

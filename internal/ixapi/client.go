package ixapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Header names required by the platform API.
const (
	HeaderApplication = "Api-Application"
	HeaderVersion     = "Api-Version"
	HeaderCompany     = "Api-Company"
)

// Credentials identify the calling application and company on the platform.
type Credentials struct {
	AppID       string
	APIVersion  string
	CompanyID   string
	AccessToken string
}

// Apply sets the authentication headers on req.
func (c Credentials) Apply(req *http.Request) {
	req.Header.Set(HeaderApplication, c.AppID)
	req.Header.Set(HeaderVersion, c.APIVersion)
	req.Header.Set(HeaderCompany, c.CompanyID)
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
}

// AssetAppConfig is the platform representation of a configuration record.
// Values and StateValues are JSON-encoded arrays.
type AssetAppConfig struct {
	PublicID    string  `json:"publicId"`
	Values      *string `json:"values,omitempty"`
	StateValues *string `json:"stateValues,omitempty"`
}

// Response is the platform's response envelope.
type Response[T any] struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status"`
	Data   T      `json:"data"`
}

// Client talks to the platform's configuration endpoints.
type Client struct {
	baseURL string
	creds   Credentials
	client  *http.Client
}

// NewClient constructs a platform client. An empty proxy URL means no proxy.
func NewClient(baseURL string, creds Credentials, proxy string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("ixapi: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		client:  newHTTPClient(proxy, timeout),
	}, nil
}

func newHTTPClient(proxy string, timeout time.Duration) *http.Client {
	var transport http.RoundTripper = &http.Transport{}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Platform client will not use a proxy.", proxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// GetAssetAppConfig fetches a configuration record. When fields are given only
// those fields are requested.
func (c *Client) GetAssetAppConfig(ctx context.Context, publicID string, fields ...string) (*AssetAppConfig, error) {
	u, err := url.Parse(c.baseURL + "/asset-app-configs/" + url.PathEscape(publicID))
	if err != nil {
		return nil, fmt.Errorf("invalid config url: %w", err)
	}
	if len(fields) > 0 {
		q := u.Query()
		q.Set("fields", strings.Join(fields, ","))
		u.RawQuery = q.Encode()
	}

	var resp Response[AssetAppConfig]
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// PatchAssetAppConfig updates the fields set in cfg.
func (c *Client) PatchAssetAppConfig(ctx context.Context, cfg AssetAppConfig) error {
	return c.doJSON(ctx, http.MethodPatch, c.baseURL+"/asset-app-configs", cfg, nil)
}

func (c *Client) doJSON(ctx context.Context, method, target string, body any, out any) error {
	return doJSON(ctx, c.client, c.creds, method, target, body, out)
}

func doJSON(ctx context.Context, client *http.Client, creds Credentials, method, target string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	creds.Apply(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	return nil
}

// StatusError reports a non-2xx answer from the platform.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: received status code %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

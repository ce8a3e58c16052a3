package ixapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"wear-and-tear-backend/internal/wear"
)

// LoggingData queries logged metric samples from the platform.
type LoggingData struct {
	url    string
	creds  Credentials
	client *http.Client
}

var _ wear.SampleSource = (*LoggingData)(nil)

// NewLoggingData constructs a logging-data client posting queries to url.
func NewLoggingData(url string, creds Credentials, proxy string, timeout time.Duration) (*LoggingData, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("ixapi: empty logging data url")
	}
	return &LoggingData{url: url, creds: creds, client: newHTTPClient(proxy, timeout)}, nil
}

// Query runs q and returns the samples in time order.
func (l *LoggingData) Query(ctx context.Context, q wear.Query) ([]wear.Sample, error) {
	var resp Response[[]wear.Sample]
	if err := doJSON(ctx, l.client, l.creds, http.MethodPost, l.url, q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []wear.Sample{}, nil
	}
	return resp.Data, nil
}

package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/mtc/internal/logger"
)

// maximum snapshot size accepted from the server
const maxSnapshotBytes = 16 << 20

// HTTPTransport talks to mtc-server
type HTTPTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the server at baseURL
func NewHTTPTransport(baseURL, token string) (*HTTPTransport, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	return &HTTPTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (t *HTTPTransport) snapshotURL(name string) string {
	return t.baseURL + "/api/v1/snapshots/" + url.PathEscape(name)
}

func (t *HTTPTransport) do(req *http.Request) (*http.Response, error) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return resp, nil
}

// Fetch downloads a snapshot
func (t *HTTPTransport) Fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.snapshotURL(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, ErrRemoteNotFound)
	default:
		return nil, responseError("download", name, resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSnapshotBytes {
		return nil, errors.New("snapshot too large")
	}
	logger.Debug("Downloaded snapshot", logger.F("name", name), logger.F("bytes", len(data)))
	return data, nil
}

// Store uploads a snapshot
func (t *HTTPTransport) Store(ctx context.Context, name string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.snapshotURL(name), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return responseError("upload", name, resp)
	}
	logger.Debug("Uploaded snapshot", logger.F("name", name), logger.F("bytes", len(data)))
	return nil
}

// Close releases idle connections
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func responseError(op, name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s %s failed: %s: %s", op, name, resp.Status, strings.TrimSpace(string(body)))
}

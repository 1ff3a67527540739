// internal/apiclient/client.go

// Package apiclient talks to an estkit server over its two-route HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"estkit/internal/jsonutil"
	"estkit/pkg/api"
)

// HealthTimeout bounds the health probe; the process call is bounded by
// the caller's context instead, since pipeline runs take minutes.
const HealthTimeout = 5 * time.Second

// StatusError is a non-2xx reply. Message carries the server's error
// string when the body has the JSON error shape, the raw body otherwise.
type StatusError struct {
	Code         int
	Message      string
	MissingFiles []string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// ClientOption configures a Client during initialization.
type ClientOption func(c *Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

type Client struct {
	base string
	hc   *http.Client
}

func New(base string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health performs GET /health and errors unless the server reports healthy.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+api.PathHealth, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	var h api.HealthV1
	if err := jsonutil.Decode(resp.Body, &h); err != nil {
		return fmt.Errorf("decode health reply: %w", err)
	}
	if h.Status != api.StatusHealthy {
		return fmt.Errorf("server status %q", h.Status)
	}
	return nil
}

// Process uploads the FASTA at fastaPath with the given filter threshold
// and streams the result archive into dst, returning the bytes written.
// The request body is piped, so large uploads never sit in memory.
func (c *Client) Process(ctx context.Context, fastaPath string, filterMinVal int, dst io.Writer) (int64, error) {
	f, err := os.Open(fastaPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeForm(mw, f, filepath.Base(fastaPath), filterMinVal)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+api.PathProcess, pr)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}
	return io.Copy(dst, resp.Body)
}

func writeForm(mw *multipart.Writer, f io.Reader, name string, filterMinVal int) error {
	if err := mw.WriteField(api.FormFilterMinVal, strconv.Itoa(filterMinVal)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile(api.FormFile, name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var ev api.ErrorV1
	if err := jsonutil.Decode(bytes.NewReader(body), &ev); err == nil && ev.Error != "" {
		se.Message = ev.Error
		se.MissingFiles = ev.MissingFiles
	} else {
		se.Message = strings.TrimSpace(string(body))
	}
	return se
}

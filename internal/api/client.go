package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Client issues authenticated requests against the profiling backend. It
// serializes JSON and multipart bodies, classifies failures into typed
// errors and leaves all caching to the query layer.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  *TokenStore

	// onUnauthorized runs whenever an authenticated call comes back 401.
	// The session installs itself here so expiry tears it down in one place.
	onUnauthorized func()
}

func NewClient(baseURL string, tokens *TokenStore, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
	}
}

// OnUnauthorized registers the session-expiry callback.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

type requestOptions struct {
	skipAuthTeardown bool
}

type Option func(*requestOptions)

// SkipAuthTeardown keeps a 401 from tearing down the session. Login uses it:
// bad credentials must not clear a pre-existing token.
func SkipAuthTeardown() Option {
	return func(o *requestOptions) { o.skipAuthTeardown = true }
}

// DoJSON issues a request whose body is either nil, a JSON-serializable
// value, or a *Form multipart payload, and decodes a JSON response into out.
// A 2xx response without a JSON body is a valid success and leaves out
// untouched.
func (c *Client) DoJSON(ctx context.Context, method, path string, body any, out any, opts ...Option) error {
	res, err := c.do(ctx, method, path, body, "application/json", opts...)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	contentType := res.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return WrapError(err, "decode response")
	}
	return nil
}

// Blob is a binary response body plus the headers needed to save it.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}

// SuggestedFilename prefers the server's Content-Disposition name and falls
// back to the given name when the header was absent.
func (b *Blob) SuggestedFilename(fallback string) string {
	if b.Filename != "" {
		return b.Filename
	}
	return fallback
}

// TimestampedFilename builds the deterministic fallback name for exports.
func TimestampedFilename(prefix, ext string) string {
	stamp := time.Now().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("%s_%s.%s", prefix, stamp, ext)
}

// DoBlob issues a GET-style request and returns the raw payload, for file
// downloads and CSV/PDF exports.
func (c *Client) DoBlob(ctx context.Context, method, path string, opts ...Option) (*Blob, error) {
	res, err := c.do(ctx, method, path, nil, "*/*", opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	blob := &Blob{
		Data:        data,
		ContentType: res.Header.Get("Content-Type"),
	}
	if disposition := res.Header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			blob.Filename = params["filename"]
		}
	}
	return blob, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, accept string, opts ...Option) (*http.Response, error) {
	options := requestOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	var payload io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case *Form:
		reader, formType, err := b.finish()
		if err != nil {
			return nil, WrapError(err, "build multipart body")
		}
		payload = reader
		contentType = formType
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, WrapError(err, "encode request body")
		}
		payload = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, payload)
	if err != nil {
		return nil, WrapError(err, "build request")
	}
	req.Header.Set("Accept", accept)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token := c.Tokens.Get()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := decodeError(res)
		_ = res.Body.Close()
		if apiErr.Status == http.StatusUnauthorized && token != "" && !options.skipAuthTeardown && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr
	}
	return res, nil
}

func decodeError(res *http.Response) *Error {
	apiErr := &Error{Status: res.StatusCode}
	var envelope struct {
		Message string `json:"message"`
		Code    string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err == nil && json.Unmarshal(raw, &envelope) == nil {
		apiErr.Message = envelope.Message
		apiErr.Code = envelope.Code
	}
	return apiErr
}

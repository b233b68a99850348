// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content is the read client for the headless CMS. It returns raw
// JSON records exactly as the CMS sent them; shaping them into canonical
// entities is the job of package normalize.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"schoolsite/internal/metrics"
	"schoolsite/internal/notify"
)

// DefaultTimeout bounds every CMS request.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 16 << 20

// Config holds the settings for a Client.
type Config struct {
	BaseURL    string          // REST base, e.g. http://localhost:1337/api
	Timeout    time.Duration   // per-request timeout; zero uses DefaultTimeout
	HTTPClient *http.Client    // optional; a client with Timeout is created when nil
	Notifier   notify.Notifier // optional; receives a message on every failure
}

// Client performs reads against the CMS. The zero token client is the
// anonymous public reader; WithToken derives an authenticated one.
// A Client is safe for concurrent use.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	notifier notify.Notifier
	token    string
}

// AuthResult is the outcome of a credential exchange.
type AuthResult struct {
	JWT      string
	Username string
	Email    string
	User     json.RawMessage
}

// New creates an anonymous client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  timeout,
		http:     hc,
		notifier: cfg.Notifier,
	}
}

// WithToken returns a copy of the client that sends the bearer token on
// every request. An empty token yields an anonymous copy.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// FetchCollection lists a resource. The CMS wraps lists as {"data": [...]};
// a bare array body is accepted too, and a missing data field yields an
// empty list.
func (c *Client) FetchCollection(ctx context.Context, res Resource, q Query) ([]json.RawMessage, error) {
	q = q.withDefaults(res.defaultPopulate())
	path := "/" + string(res)
	if qs := q.Encode(); qs != "" {
		path += "?" + qs
	}

	body, err := c.do(ctx, http.MethodGet, res, path, nil)
	if err != nil {
		slog.Error("cms fetch collection failed", "resource", res, "error", err)
		c.report(ctx, err)
		return nil, fmt.Errorf("fetch %s: %w", res, err)
	}

	items := collectionItems(body)
	slog.Debug("cms collection fetched", "resource", res, "count", len(items))
	return items, nil
}

// FetchByID loads one record. Relations are fully expanded unless the query
// says otherwise. A 404 or a null data field is reported as *NotFoundError.
func (c *Client) FetchByID(ctx context.Context, res Resource, id string, q Query) (json.RawMessage, error) {
	q = q.withDefaults([]string{"*"})
	path := "/" + string(res) + "/" + url.PathEscape(id)
	if qs := q.Encode(); qs != "" {
		path += "?" + qs
	}

	body, err := c.do(ctx, http.MethodGet, res, path, nil)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			err = &NotFoundError{Resource: res, ID: id}
		}
		slog.Error("cms fetch record failed", "resource", res, "id", id, "error", err)
		c.report(ctx, err)
		return nil, fmt.Errorf("fetch %s %s: %w", res, id, err)
	}

	record, ok := singleRecord(body)
	if !ok {
		err := &NotFoundError{Resource: res, ID: id}
		c.report(ctx, err)
		return nil, fmt.Errorf("fetch %s %s: %w", res, id, err)
	}
	return record, nil
}

// Login exchanges credentials for a bearer token at /auth/local.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	payload, err := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})
	if err != nil {
		return nil, fmt.Errorf("login marshal: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "auth", "/auth/local", payload)
	if err != nil {
		slog.Warn("cms login failed", "identifier", identifier, "error", err)
		c.report(ctx, err)
		return nil, fmt.Errorf("login: %w", err)
	}

	parsed := gjson.ParseBytes(body)
	jwt := parsed.Get("jwt").String()
	if jwt == "" {
		err := &ServerError{Method: http.MethodPost, URL: c.baseURL + "/auth/local", Status: http.StatusOK, Message: "missing token in response"}
		c.report(ctx, err)
		return nil, fmt.Errorf("login: %w", err)
	}

	user := parsed.Get("user")
	return &AuthResult{
		JWT:      jwt,
		Username: user.Get("username").String(),
		Email:    user.Get("email").String(),
		User:     json.RawMessage(user.Raw),
	}, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, res Resource, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fullURL := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("cms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	if err != nil {
		terr := &TransportError{
			Method:  method,
			URL:     fullURL,
			Err:     err,
			timeout: isTimeout(ctx, err),
			limit:   c.timeout.Milliseconds(),
		}
		metrics.ObserveCMSRequest(string(res), "transport", timer.Elapsed())
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.ObserveCMSRequest(string(res), "transport", timer.Elapsed())
		return nil, &TransportError{
			Method:  method,
			URL:     fullURL,
			Err:     fmt.Errorf("read body: %w", err),
			timeout: isTimeout(ctx, err),
			limit:   c.timeout.Milliseconds(),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := "server"
		if resp.StatusCode == http.StatusNotFound {
			outcome = "not_found"
		}
		metrics.ObserveCMSRequest(string(res), outcome, timer.Elapsed())
		return nil, &ServerError{
			Method:  method,
			URL:     fullURL,
			Status:  resp.StatusCode,
			Message: serverMessage(body, resp.StatusCode),
		}
	}

	metrics.ObserveCMSRequest(string(res), "ok", timer.Elapsed())
	return body, nil
}

// report forwards a failure to the notifier, if any.
func (c *Client) report(ctx context.Context, err error) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(ctx, notify.LevelError, UserMessage(err))
}

// collectionItems extracts list elements from a response body.
func collectionItems(body []byte) []json.RawMessage {
	if !gjson.ValidBytes(body) {
		slog.Warn("cms returned a non-JSON collection body", "bytes", len(body))
		return []json.RawMessage{}
	}
	root := gjson.ParseBytes(body)
	list := root
	if !root.IsArray() {
		list = root.Get("data")
	}
	if !list.IsArray() {
		return []json.RawMessage{}
	}

	arr := list.Array()
	items := make([]json.RawMessage, 0, len(arr))
	for _, el := range arr {
		items = append(items, json.RawMessage(el.Raw))
	}
	return items
}

// singleRecord extracts the record of a single-item response. It accepts
// {"data": {...}} and a bare object; {"data": null} means not found.
func singleRecord(body []byte) (json.RawMessage, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, false
	}
	data := root.Get("data")
	if data.Exists() {
		if !data.IsObject() {
			return nil, false
		}
		return json.RawMessage(data.Raw), true
	}
	return json.RawMessage(root.Raw), true
}

// serverMessage picks error.message from an error payload, falling back to
// the status text.
func serverMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("Request failed with status code %d", status)
}

// isTimeout reports whether a transport failure was caused by a deadline.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

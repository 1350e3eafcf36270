// Package api forwards account, roster and classroom commands to the remote
// REST service and hands the response body back unchanged.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justyntemme/deskshell/internal/debug"
)

var (
	ErrUnknownRoute   = errors.New("unknown route")
	ErrMissingArg     = errors.New("missing argument")
	ErrUserSigMissing = errors.New("UserSig not found in response")
)

// StatusError reports a non-2xx response on a route that checks status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "Request failed with status: " + e.Status
}

// Args are the raw JSON arguments of one command.
type Args map[string]json.RawMessage

// lookup finds name as given or in its camelCase form.
func (a Args) lookup(name string) (json.RawMessage, bool) {
	if v, ok := a[name]; ok && !isNull(v) {
		return v, true
	}
	if v, ok := a[camelCase(name)]; ok && !isNull(v) {
		return v, true
	}
	return nil, false
}

// text renders a scalar argument for a form or query string.
func (a Args) text(name string) (string, bool) {
	raw, ok := a.lookup(name)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(bytes.TrimSpace(raw)), true
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || string(bytes.TrimSpace(v)) == "null"
}

func camelCase(s string) string {
	parts := strings.Split(s, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls routes against one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        16,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Call runs the named route with args and returns the response body, or the
// value the route extracts from it.
func (c *Client) Call(ctx context.Context, name string, args Args) (string, error) {
	route, ok := Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}

	req, err := c.newRequest(ctx, route, args)
	if err != nil {
		return "", err
	}
	if route.Auth {
		token, _ := args.text("token")
		req.Header.Set("Authorization", token)
	}

	debug.Log(debug.API, "%s %s", req.Method, req.URL.Redacted())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	debug.Log(debug.API, "%s: %s", route.Name, resp.Status)

	if route.CheckStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if route.Extract != nil {
		return route.Extract(body)
	}
	return string(body), nil
}

func (c *Client) newRequest(ctx context.Context, route Route, args Args) (*http.Request, error) {
	target := c.baseURL + route.Path

	switch route.Encoding {
	case JSONBody:
		body := make(map[string]json.RawMessage, len(route.Fields))
		for _, f := range route.Fields {
			v, ok := args.lookup(f.Arg)
			if !ok {
				if f.Optional {
					continue
				}
				return nil, fmt.Errorf("%s: %w %q", route.Name, ErrMissingArg, f.Arg)
			}
			body[f.param()] = v
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, route.Method, target, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil

	case FormBody:
		values, err := route.values(args)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, route.Method, target, strings.NewReader(values.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil

	default:
		values, err := route.values(args)
		if err != nil {
			return nil, err
		}
		if q := values.Encode(); q != "" {
			target += "?" + q
		}
		return http.NewRequestWithContext(ctx, route.Method, target, nil)
	}
}

func (r Route) values(args Args) (url.Values, error) {
	values := url.Values{}
	for _, f := range r.Fields {
		v, ok := args.text(f.Arg)
		if !ok {
			if f.Optional {
				continue
			}
			return nil, fmt.Errorf("%s: %w %q", r.Name, ErrMissingArg, f.Arg)
		}
		values.Set(f.param(), v)
		if r.FirstOf && f.Optional {
			break
		}
	}
	return values, nil
}

// extractUserSig finds the signature under data or at the top level, trying
// user_sig, usersig and sig in that order.
func extractUserSig(body []byte) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", err
	}
	keys := []string{"user_sig", "usersig", "sig"}
	if data, ok := doc["data"].(map[string]any); ok {
		for _, k := range keys {
			if s, ok := data[k].(string); ok {
				return s, nil
			}
		}
	}
	for _, k := range keys {
		if s, ok := doc[k].(string); ok {
			return s, nil
		}
	}
	debug.Log(debug.API, "UserSig missing in %s", body)
	return "", ErrUserSigMissing
}

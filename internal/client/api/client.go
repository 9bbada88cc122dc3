// Package api is the client side of the ChatBook HTTP API, the chat
// websocket and the gRPC health probe.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var ErrUnavailable = errors.New("server unavailable")

// APIError carries a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Message struct {
	ID        int64     `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope is any frame received on the chat socket. Exactly one of From,
// To or Error is set.
type Envelope struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Content   string    `json:"content,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	ID        int64     `json:"id,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type Client struct {
	baseURL    string
	healthAddr string
	http       *http.Client
	dialer     *websocket.Dialer

	mu     sync.Mutex
	user   string
	tokens TokenPair

	healthOnce sync.Once
	healthConn *grpc.ClientConn
	healthErr  error
}

func NewClient(baseURL, healthAddr string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		healthAddr: healthAddr,
		http:       &http.Client{Timeout: 10 * time.Second},
		dialer:     websocket.DefaultDialer,
	}
}

func (c *Client) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens.AccessToken != ""
}

func (c *Client) Register(ctx context.Context, user, password string) error {
	return c.do(ctx, http.MethodPost, "/register", map[string]string{"username": user, "password": password}, nil)
}

func (c *Client) Login(ctx context.Context, user, password string) error {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/login-json", map[string]string{"username": user, "password": password}, &pair); err != nil {
		return err
	}
	c.mu.Lock()
	c.user, c.tokens = user, pair
	c.mu.Unlock()
	return nil
}

// Refresh rotates the stored refresh token.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.tokens.RefreshToken
	c.mu.Unlock()
	if refresh == "" {
		return common.ErrorUnauthorized
	}

	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/refresh-token", map[string]string{"refresh_token": refresh}, &pair); err != nil {
		return err
	}
	c.mu.Lock()
	c.tokens = pair
	c.mu.Unlock()
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	refresh := c.tokens.RefreshToken
	c.user, c.tokens = "", TokenPair{}
	c.mu.Unlock()
	return c.do(ctx, http.MethodPost, "/logout", map[string]string{"refresh_token": refresh}, nil)
}

func (c *Client) Users(ctx context.Context) ([]string, error) {
	var items []struct {
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &items); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Username)
	}
	return out, nil
}

// History returns the conversation between the logged-in user and other.
func (c *Client) History(ctx context.Context, other string) ([]Message, error) {
	q := url.Values{"user1": {c.User()}, "user2": {other}}
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/messages?"+q.Encode(), nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Connect opens the chat socket. An expired access token is refreshed once
// and the dial retried.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	conn, err := c.dial(ctx)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if rerr := c.Refresh(ctx); rerr != nil {
			return nil, err
		}
		conn, err = c.dial(ctx)
	}
	return conn, err
}

func (c *Client) dial(ctx context.Context) (*Conn, error) {
	c.mu.Lock()
	user, access := c.user, c.tokens.AccessToken
	c.mu.Unlock()
	if access == "" {
		return nil, common.ErrorUnauthorized
	}

	u := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/chat/" + url.PathEscape(user)
	header := http.Header{common.AuthorizationHeaderName: {common.BearerPrefix + access}}
	ws, resp, err := c.dialer.DialContext(ctx, u, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, responseError(resp)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Conn{ws: ws}, nil
}

// Ping asks the gRPC health service whether the server is serving.
func (c *Client) Ping(ctx context.Context) error {
	c.healthOnce.Do(func() {
		c.healthConn, c.healthErr = grpc.NewClient(c.healthAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	})
	if c.healthErr != nil {
		return c.healthErr
	}
	resp, err := healthpb.NewHealthClient(c.healthConn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: status %s", ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (c *Client) Close() error {
	if c.healthConn != nil {
		return c.healthConn.Close()
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func responseError(resp *http.Response) error {
	var d struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&d)
	if d.Detail == "" {
		d.Detail = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Detail: d.Detail}
}

// Package client talks to the ordering API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aura-taste/internal/auth"
	"aura-taste/internal/cart"
	"aura-taste/internal/domain"
	cartsvc "aura-taste/internal/service/cart"
	"aura-taste/internal/service/checkout"
	"aura-taste/internal/service/menu"
	ordersvc "aura-taste/internal/service/order"
	"github.com/gorilla/websocket"
)

// APIError is a non-2xx answer.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return (&domain.ValidationError{Fields: e.Fields}).Error()
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps the status back to the domain sentinel so callers can use
// errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrAlreadyExists
	case http.StatusServiceUnavailable:
		return domain.ErrPersistence
	}
	return nil
}

// Order is an order view as the API renders it.
type Order struct {
	ordersvc.View
	TrackingURL string `json:"trackingUrl,omitempty"`
}

type Token struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int              `json:"expires_in"`
	Customer     *domain.Customer `json:"customer"`
}

type Session struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

type Client struct {
	base string
	hc   *http.Client

	// Token is a customer access token; Session an anonymous session token.
	Token   string
	Session string
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *Client) Menu(ctx context.Context) ([]menu.Section, error) {
	var out struct {
		Sections []menu.Section `json:"sections"`
	}
	err := c.do(ctx, http.MethodGet, "/menu", nil, &out)
	return out.Sections, err
}

func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Login exchanges credentials for tokens. The current session, if any, is
// sent along so its cart is merged.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{"grant_type": {"password"}, "username": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.Session != "" {
		req.Header.Set(auth.SessionHeader, c.Session)
	}
	var t Token
	if err := c.send(req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil)
}

func (c *Client) AddLine(ctx context.Context, in cartsvc.AddInput) (cart.Snapshot, error) {
	var snap cart.Snapshot
	err := c.do(ctx, http.MethodPost, "/cart/lines", in, &snap)
	return snap, err
}

func (c *Client) PlaceOrder(ctx context.Context, in checkout.Input) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out struct {
		Results []Order `json:"results"`
	}
	err := c.do(ctx, http.MethodGet, "/orders", nil, &out)
	return out.Results, err
}

func (c *Client) Order(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Watch streams snapshots of one order until ctx ends or the server closes
// the socket.
func (c *Client) Watch(ctx context.Context, id string, fn func(Order)) error {
	u, err := url.Parse(c.base + "/orders/" + url.PathEscape(id) + "/live")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	if c.Token != "" {
		q.Set("token", c.Token)
	}
	if c.Session != "" {
		q.Set("session", c.Session)
	}
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return decodeError(resp)
		}
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg struct {
			Orders []Order `json:"orders"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		for _, o := range msg.Orders {
			fn(o)
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.Session != "" {
		req.Header.Set(auth.SessionHeader, c.Session)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	e := &APIError{Status: resp.StatusCode, Message: resp.Status}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		if body.Error != "" {
			e.Message = body.Error
		}
		e.Fields = body.Fields
	}
	return e
}
